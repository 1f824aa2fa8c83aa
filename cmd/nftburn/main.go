// Command nftburn lists the NFTs held by a wallet and burns a bounded number
// of them in one transaction.
//
// Usage:
//
//	nftburn [-env FILE] list [-owner ADDRESS]
//	nftburn [-env FILE] burn [-limit N] [-dry-run]
//	nftburn [-env FILE] inspect -mint ADDRESS
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"solana-nft-burner/internal/burner"
	"solana-nft-burner/internal/config"
	"solana-nft-burner/internal/domain"
	"solana-nft-burner/internal/logging"
	"solana-nft-burner/internal/metadata"
	"solana-nft-burner/internal/observability"
	"solana-nft-burner/internal/orchestrator"
	"solana-nft-burner/internal/qualifier"
	"solana-nft-burner/internal/scanner"
	"solana-nft-burner/internal/solana"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app holds the components shared by all subcommands.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	rpc     *solana.HTTPClient
	qual    *qualifier.Qualifier
	scan    *scanner.Scanner
	stdout  io.Writer
	stderr  io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("nftburn", flag.ContinueOnError)
	global.SetOutput(stderr)
	envFile := global.String("env", "", "Path to a .env file (default: ./.env if present)")
	global.Usage = func() { usage(stderr, global) }

	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		usage(stderr, global)
		return exitUsage
	}

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "list", "burn", "inspect":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		usage(stderr, global)
		return exitUsage
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error:\n%v\n", err)
		return exitFail
	}

	a, err := newApp(cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "setup error: %v\n", err)
		return exitFail
	}
	defer a.close()

	switch command {
	case "list":
		return a.runList(ctx, rest)
	case "burn":
		return a.runBurn(ctx, rest)
	default:
		return a.runInspect(ctx, rest)
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: nftburn [-env FILE] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list     print qualified NFT mints of an owner")
	fmt.Fprintln(w, "  burn     burn up to -limit qualified NFTs of the configured wallet")
	fmt.Fprintln(w, "  inspect  explain the qualification decision for one mint")
	fmt.Fprintln(w)
	fs.PrintDefaults()
}

func newApp(cfg config.Config, stdout, stderr io.Writer) (*app, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics("")

	rpcOpts := []solana.ClientOption{
		solana.WithTimeout(cfg.RPCTimeout),
		solana.WithCommitment(cfg.Commitment),
	}
	if cfg.SendMaxRetries != nil {
		rpcOpts = append(rpcOpts, solana.WithSendMaxRetries(*cfg.SendMaxRetries))
	}
	rpc := solana.NewHTTPClient(cfg.Endpoint(), rpcOpts...)

	meta := metadata.New(metadata.Options{
		RPC:         rpc,
		HTTPClient:  &http.Client{Timeout: cfg.MetadataTimeout},
		IPFSGateway: cfg.IPFSGateway,
	})

	qual, err := qualifier.New(qualifier.Options{
		Policy:   cfg.Policy,
		Metadata: meta,
		Metrics:  metrics,
		Logger:   logger.Named("qualifier"),
	})
	if err != nil {
		return nil, err
	}

	scan := scanner.New(scanner.Options{
		Ledger:      rpc,
		Qualifier:   qual,
		Concurrency: cfg.ScanConcurrency,
		Metrics:     metrics,
		Logger:      logger.Named("scanner"),
	})

	logger.Debug("configured",
		zap.String("rpc", rpc.Endpoint()),
		zap.String("commitment", string(cfg.Commitment)),
		zap.String("mode", string(cfg.Policy.Mode)),
		zap.Int("concurrency", scan.Concurrency()))

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		rpc:     rpc,
		qual:    qual,
		scan:    scan,
		stdout:  stdout,
		stderr:  stderr,
	}, nil
}

func (a *app) close() {
	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.logger.Warn("metrics export failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *app) runList(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	owner := fs.String("owner", "", "Wallet address to scan (default: public key of PRIVATE_KEY)")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return exitUsage
	}

	if *owner == "" {
		signer, err := a.cfg.Signer()
		if err != nil {
			fmt.Fprintf(a.stderr, "no owner: pass -owner or set %s (%v)\n", config.EnvPrivateKey, err)
			return exitUsage
		}
		*owner = signer.PublicKey.ToBase58()
	}

	orch := orchestrator.New(orchestrator.Options{
		Scanner: a.scan,
		Metrics: a.metrics,
		Logger:  a.logger,
	})

	result, err := orch.List(ctx, *owner)
	if err != nil {
		return a.fail(err)
	}

	for _, nft := range result.NFTs {
		fmt.Fprintln(a.stdout, nft.Mint)
	}
	return exitOK
}

func (a *app) runBurn(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("burn", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	limit := fs.Int("limit", a.cfg.BurnLimit, "Maximum number of NFTs to burn (default from BURN_LIMIT)")
	dryRun := fs.Bool("dry-run", false, "Print the selection without submitting")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return exitUsage
	}

	signer, err := a.cfg.Signer()
	if err != nil {
		fmt.Fprintf(a.stderr, "configuration error: %v\n", err)
		return exitFail
	}

	opts := orchestrator.Options{
		Scanner: a.scan,
		Metrics: a.metrics,
		Logger:  a.logger,
	}
	if *limit > 0 && !*dryRun {
		opts.NewBurner = a.newBurner
	}

	result, err := orchestrator.New(opts).Burn(ctx, signer, *limit, *dryRun)
	if err != nil {
		return a.fail(err)
	}

	switch {
	case result.NoAction != "":
		fmt.Fprintf(a.stdout, "no action: %s\n", result.NoAction)
	case result.DryRun:
		fmt.Fprintf(a.stdout, "dry run: would burn %d of %d qualified NFTs\n", len(result.Selected), len(result.Qualified))
		printNFTs(a.stdout, result.Selected)
	default:
		fmt.Fprintf(a.stdout, "signature: %s\n", result.Receipt.Signature)
		fmt.Fprintf(a.stdout, "slot: %d\n", result.Receipt.Slot)
		fmt.Fprintf(a.stdout, "burned %d NFTs:\n", len(result.Receipt.Burned))
		printNFTs(a.stdout, result.Receipt.Burned)
	}
	return exitOK
}

func (a *app) runInspect(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	mint := fs.String("mint", "", "Mint address to evaluate")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 || *mint == "" {
		if *mint == "" {
			fmt.Fprintln(a.stderr, "inspect requires -mint")
		}
		return exitUsage
	}

	orch := orchestrator.New(orchestrator.Options{
		Scanner:   a.scan,
		Explainer: a.qual,
		Metrics:   a.metrics,
		Logger:    a.logger,
	})

	d, err := orch.Inspect(ctx, *mint)
	if errors.Is(err, orchestrator.ErrInvalidMint) {
		fmt.Fprintf(a.stderr, "%v\n", err)
		return exitUsage
	}
	if err != nil {
		return a.fail(err)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "mint\t%s\n", d.Mint)
	fmt.Fprintf(tw, "mode\t%s\n", a.qual.Policy().Mode)
	fmt.Fprintf(tw, "qualified\t%t\n", d.Qualified)
	if d.Reason != "" {
		fmt.Fprintf(tw, "reason\t%s\n", d.Reason)
	}
	if d.Err != nil {
		fmt.Fprintf(tw, "error\t%v\n", d.Err)
	}
	if r := d.Record; r != nil {
		fmt.Fprintf(tw, "metadata\t%s\n", r.Address)
		fmt.Fprintf(tw, "name\t%s\n", r.Name)
		fmt.Fprintf(tw, "symbol\t%s\n", r.Symbol)
		fmt.Fprintf(tw, "uri\t%s\n", r.URI)
		fmt.Fprintf(tw, "update authority\t%s\n", r.UpdateAuthority)
	}
	if doc := d.Document; doc != nil {
		for _, attr := range doc.Attributes {
			fmt.Fprintf(tw, "attribute\t%s = %v\n", attr.TraitType, attr.Value)
		}
	}
	_ = tw.Flush()
	return exitOK
}

// newBurner connects the confirmer and builds the burner. The orchestrator
// calls it only when a batch is ready to submit.
func (a *app) newBurner(ctx context.Context) (orchestrator.Burner, func(), error) {
	confirmer, closeConfirmer, err := a.newConfirmer(ctx)
	if err != nil {
		return nil, nil, err
	}
	b := burner.New(burner.Options{
		Ledger:    a.rpc,
		Confirmer: confirmer,
		Metrics:   a.metrics,
		Logger:    a.logger.Named("burner"),
	})
	return b, closeConfirmer, nil
}

// newConfirmer picks WebSocket confirmation when SOLANA_WS_URL is set, polling otherwise.
func (a *app) newConfirmer(ctx context.Context) (solana.Confirmer, func(), error) {
	if a.cfg.WSURL == "" {
		return solana.NewPollingConfirmer(a.rpc, a.cfg.Commitment, 0, a.cfg.ConfirmTimeout), func() {}, nil
	}

	wsCfg := solana.DefaultWSConfig()
	wsCfg.Commitment = a.cfg.Commitment
	ws, err := solana.NewWSClient(ctx, a.cfg.WSURL, &wsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", a.cfg.WSURL, err)
	}
	closeWS := func() {
		if err := ws.Close(); err != nil {
			a.logger.Debug("websocket close", zap.Error(err))
		}
	}
	return solana.NewWSConfirmer(ws, a.rpc, a.cfg.Commitment, a.cfg.ConfirmTimeout), closeWS, nil
}

// fail reports a ledger or burn failure and returns the failure exit code.
func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "error: %v\n", err)

	var burnErr *domain.BurnError
	if errors.As(err, &burnErr) && len(burnErr.Logs) > 0 {
		fmt.Fprintf(a.stderr, "program logs:\n  %s\n", strings.Join(burnErr.Logs, "\n  "))
	}
	if errors.Is(err, context.Canceled) {
		a.logger.Warn("interrupted")
	}
	return exitFail
}

func printNFTs(w io.Writer, nfts []domain.QualifiedNFT) {
	for _, nft := range nfts {
		fmt.Fprintf(w, "  %s  (account %s)\n", nft.Mint, nft.AccountAddress)
	}
}

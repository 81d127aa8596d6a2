package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"equix/internal/config"
	"equix/internal/miner"
	"equix/internal/rpc"
	"equix/internal/server"
	"equix/pkg/difficulty"
	"equix/pkg/equix"
	"equix/pkg/oracle"
)

var (
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Concurrent solvers, zero for one per physical core",
	}
	minDifficultyFlag = &cli.UintFlag{
		Name:  "min-difficulty",
		Usage: "Stop as soon as a solution reaches this difficulty",
	}
	maxNoncesFlag = &cli.Uint64Flag{
		Name:  "max-nonces",
		Usage: "Number of nonces to try, zero for unbounded",
	}
	startNonceFlag = &cli.Uint64Flag{
		Name:  "start-nonce",
		Usage: "First nonce to try",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Stop mining after this long",
	}
	solutionFlag = &cli.StringFlag{
		Name:     "solution",
		Usage:    "Hex encoded 16-byte solution",
		Required: true,
	}
	remoteFlag = &cli.StringFlag{
		Name:  "remote",
		Usage: "Verify against a remote gRPC server instead of locally",
	}
	listenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "REST listen address",
	}
	grpcListenFlag = &cli.StringFlag{
		Name:  "grpc-listen",
		Usage: "gRPC listen address, empty to disable",
	}
	requireIssuedFlag = &cli.BoolFlag{
		Name:  "require-issued",
		Usage: "Only accept solutions for seeds issued by this server",
	}
)

var mineCommand = &cli.Command{
	Name:   "mine",
	Usage:  "Search nonces for the highest difficulty solution",
	Flags:  []cli.Flag{seedFlag, workersFlag, minDifficultyFlag, maxNoncesFlag, startNonceFlag, timeoutFlag},
	Action: mine,
}

var solveCommand = &cli.Command{
	Name:   "solve",
	Usage:  "Solve a single challenge",
	Flags:  []cli.Flag{seedFlag, nonceFlag},
	Action: solve,
}

var verifyCommand = &cli.Command{
	Name:   "verify",
	Usage:  "Verify a solution",
	Flags:  []cli.Flag{seedFlag, nonceFlag, solutionFlag, remoteFlag},
	Action: verify,
}

var difficultyCommand = &cli.Command{
	Name:   "difficulty",
	Usage:  "Print the difficulty digest of a solution",
	Flags:  []cli.Flag{nonceFlag, solutionFlag},
	Action: score,
}

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Serve verification over REST and gRPC",
	Flags:  []cli.Flag{listenFlag, grpcListenFlag, minDifficultyFlag, workersFlag, requireIssuedFlag},
	Action: serve,
}

var oraclesCommand = &cli.Command{
	Name:   "oracles",
	Usage:  "List the registered oracle methods",
	Action: oracles,
}

func selectMethod(cfg *config.Config) (oracle.Method, error) {
	method, err := oracle.NewFactory(cfg.Oracle).Best()
	if err != nil {
		return nil, err
	}
	log.WithField("oracle", method.Name()).Debug("Selected oracle method")
	return method, nil
}

func seedFrom(c *cli.Context, cfg *config.Config) ([equix.SeedSize]byte, error) {
	s := cfg.Seed
	if c.IsSet(seedFlag.Name) {
		s = c.String(seedFlag.Name)
	}
	if s == "" {
		return [equix.SeedSize]byte{}, errors.New("no seed given, use --seed or EQUIX_SEED")
	}
	return equix.ParseSeed(s)
}

func challengeFrom(c *cli.Context, cfg *config.Config) (equix.Challenge, error) {
	seed, err := seedFrom(c, cfg)
	if err != nil {
		return equix.Challenge{}, err
	}
	return equix.NewChallenge(seed, c.Uint64(nonceFlag.Name)), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func mine(c *cli.Context) error {
	cfg := configFrom(c)
	mc := cfg.Miner
	if c.IsSet(workersFlag.Name) {
		mc.Workers = c.Int(workersFlag.Name)
	}
	if c.IsSet(minDifficultyFlag.Name) {
		mc.MinDifficulty = uint32(c.Uint(minDifficultyFlag.Name))
	}
	if c.IsSet(maxNoncesFlag.Name) {
		mc.MaxNonces = c.Uint64(maxNoncesFlag.Name)
	}
	if c.IsSet(startNonceFlag.Name) {
		mc.StartNonce = c.Uint64(startNonceFlag.Name)
	}
	if c.IsSet(timeoutFlag.Name) {
		mc.Timeout = c.Duration(timeoutFlag.Name)
	}

	seed, err := seedFrom(c, cfg)
	if err != nil {
		return err
	}
	method, err := selectMethod(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	if mc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, mc.Timeout)
		defer cancel()
	}

	m := miner.New(method, miner.Config{
		Workers:       mc.Workers,
		BatchSize:     mc.BatchSize,
		StartNonce:    mc.StartNonce,
		MaxNonces:     mc.MaxNonces,
		MinDifficulty: mc.MinDifficulty,
		OnImprove: func(r miner.Result) {
			log.WithFields(logrus.Fields{
				"nonce":      r.Nonce,
				"difficulty": r.Difficulty,
				"attempts":   humanize.Comma(int64(r.Attempts)),
			}).Info("Found better solution")
		},
	})
	log.WithFields(logrus.Fields{
		"workers": m.Workers(),
		"oracle":  method.Name(),
		"target":  mc.MinDifficulty,
	}).Info("Mining")

	res, err := m.Mine(ctx, seed)
	if err != nil {
		return err
	}
	printMining(c.App.Writer, res)
	return nil
}

func solve(c *cli.Context) error {
	cfg := configFrom(c)
	challenge, err := challengeFrom(c, cfg)
	if err != nil {
		return err
	}
	method, err := selectMethod(cfg)
	if err != nil {
		return err
	}

	e := equix.New(method)
	start := time.Now()
	solutions, err := e.Solve(challenge)
	if err != nil {
		return err
	}
	log.WithField("elapsed", time.Since(start)).Debug("Solved")
	printSolutions(c.App.Writer, challenge, solutions, e.Stats())
	return nil
}

func verify(c *cli.Context) error {
	cfg := configFrom(c)
	challenge, err := challengeFrom(c, cfg)
	if err != nil {
		return err
	}
	sol, err := equix.ParseSolution(c.String(solutionFlag.Name))
	if err != nil {
		return err
	}

	if addr := c.String(remoteFlag.Name); addr != "" {
		return verifyRemote(c, addr, challenge, sol)
	}

	method, err := selectMethod(cfg)
	if err != nil {
		return err
	}
	result := equix.Verify(method, challenge, sol)
	rows := []string{
		row("oracle", method.Name()),
		row("result", renderResult(result)),
	}
	if result == equix.ResultOk {
		rows = append(rows, row("difficulty", fmt.Sprint(difficulty.Score(sol, challenge.Nonce()))))
	}
	printBox(c.App.Writer, "Verify", rows...)
	if result != equix.ResultOk {
		return cli.Exit("", 2)
	}
	return nil
}

func verifyRemote(c *cli.Context, addr string, challenge equix.Challenge, sol equix.Solution) error {
	client, err := rpc.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()
	reply, err := client.Verify(ctx, challenge, sol)
	if err != nil {
		return err
	}
	printBox(c.App.Writer, "Verify",
		row("server", addr),
		row("result", renderResult(reply.Result)),
		row("accepted", fmt.Sprint(reply.Accepted)),
		row("difficulty", fmt.Sprint(reply.Difficulty)),
	)
	if !reply.Accepted {
		return cli.Exit("", 2)
	}
	return nil
}

func score(c *cli.Context) error {
	sol, err := equix.ParseSolution(c.String(solutionFlag.Name))
	if err != nil {
		return err
	}
	h := difficulty.NewHash(sol, c.Uint64(nonceFlag.Name))
	printBox(c.App.Writer, "Difficulty",
		row("solution", sol.Hex()),
		row("nonce", humanize.Comma(int64(h.Nonce))),
		row("digest", fmt.Sprintf("%x", h.Digest)),
		row("difficulty", fmt.Sprint(h.Difficulty())),
	)
	return nil
}

func serve(c *cli.Context) error {
	cfg := configFrom(c)
	sc := cfg.Server
	if c.IsSet(listenFlag.Name) {
		sc.Listen = c.String(listenFlag.Name)
	}
	if c.IsSet(grpcListenFlag.Name) {
		sc.GRPCListen = c.String(grpcListenFlag.Name)
	}
	if c.IsSet(minDifficultyFlag.Name) {
		sc.MinDifficulty = uint32(c.Uint(minDifficultyFlag.Name))
	}
	workers := cfg.Miner.Workers
	if c.IsSet(workersFlag.Name) {
		workers = c.Int(workersFlag.Name)
	}
	if workers <= 0 {
		workers = miner.DefaultWorkers()
	}

	method, err := selectMethod(cfg)
	if err != nil {
		return err
	}
	pool := miner.NewPool(method, workers)

	requireIssued := c.Bool(requireIssuedFlag.Name)
	srv, err := server.New(server.Config{
		Listen:        sc.Listen,
		ReplayCache:   sc.ReplayCache,
		MinDifficulty: sc.MinDifficulty,
		ChallengeTTL:  sc.ChallengeTTL,
		RequireIssued: requireIssued,
	}, method, pool)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	if sc.GRPCListen != "" {
		svc := rpc.NewService(method, pool, srv.Ledger(), rpc.Policy{
			MinDifficulty: sc.MinDifficulty,
			RequireIssued: requireIssued,
		})
		g.Go(func() error {
			return rpc.Serve(ctx, rpc.NewServer(svc), sc.GRPCListen)
		})
	}

	log.WithFields(logrus.Fields{
		"oracle":  method.Name(),
		"solvers": pool.Size(),
	}).Info("Serving")
	return g.Wait()
}

func oracles(c *cli.Context) error {
	report := oracle.NewFactory(configFrom(c).Oracle).Report()
	rows := []string{row("selected", report.BestMethod)}
	for _, m := range report.Methods {
		status := okStyle.Render("available")
		if !m.Available {
			status = failStyle.Render("unavailable")
		}
		rows = append(rows, row(m.Name, fmt.Sprintf("%s  priority %d  %s", status, m.Priority, m.Description)))
	}
	printBox(c.App.Writer, fmt.Sprintf("Oracles (%d/%d)", report.AvailableCount, report.TotalMethods), rows...)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolver/config"
	"github.com/domino14/ddsolver/service"
	"github.com/domino14/ddsolver/solver"
)

var cfg *config.Config
var nc *nats.Conn
var handler *service.Handler

// HardTimeLimit caps a single invocation.
const HardTimeLimit = 180 * time.Second

func HandleRequest(ctx context.Context, req service.SolveRequest) (string, error) {
	logger := log.With().Str("id", req.ID).Logger()

	limit := HardTimeLimit
	if req.TimeoutMs > 0 {
		limit = min(limit, time.Duration(req.TimeoutMs)*time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	logger.Info().Str("deal", req.Deal).Dur("limit", limit).Msg("solve-request")
	resp := handler.Handle(ctx, &req)
	data, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	if req.ReplyChannel != "" && nc != nil {
		logger.Info().Msg("solve-done-sending-via-nats")
		err = retry.Do(
			func() error {
				// Only an acknowledgement is expected back.
				_, err := nc.Request(req.ReplyChannel, data, 3*time.Second)
				return err
			},
			retry.Attempts(5),
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("reply-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	return string(data), nil
}

func setup(args []string) error {
	cfg = config.DefaultConfig()
	if err := cfg.Load(args); err != nil {
		return err
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	handler = service.NewHandler(solver.New(cfg))
	return nil
}

func main() {
	if err := setup(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	var err error
	nc, err = nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}
	defer nc.Close()

	lambda.Start(HandleRequest)
}

// Command event-seeder writes synthetic ECS authentication and network
// events for one host, for exercising the KPI service locally.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/telhawk-systems/telhawk-kpi/common/logging"
)

var (
	storeURL    = flag.String("url", "http://localhost:9200", "OpenSearch URL")
	username    = flag.String("username", "", "OpenSearch username")
	password    = flag.String("password", "", "OpenSearch password")
	insecure    = flag.Bool("insecure", false, "skip TLS verification")
	index       = flag.String("index", "filebeat-kpi-seed", "target index")
	host        = flag.String("host", "", "host.name of the generated events (required)")
	count       = flag.Int("count", 1000, "number of background events")
	authRatio   = flag.Float64("auth-ratio", 0.4, "share of authentication events")
	failureRate = flag.Float64("failure-rate", 0.15, "share of failed logins")
	sources     = flag.Int("sources", 20, "distinct source addresses")
	dests       = flag.Int("destinations", 10, "distinct destination addresses")
	timeSpread  = flag.Duration("time-spread", 24*time.Hour, "spread events over this period ending now")
	burst       = flag.Int("burst", 0, "failed logins from a single address at the end of the range")
	burstStep   = flag.Duration("burst-step", 2*time.Second, "spacing of burst events")
	seed        = flag.Int64("seed", 0, "random seed (default: current time)")
)

func main() {
	flag.Parse()

	logger := logging.New(slog.LevelInfo, "text").With(logging.Service("event-seeder"))
	if *host == "" {
		logger.Error("host is required, use -host")
		os.Exit(2)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{*storeURL},
		Username:  *username,
		Password:  *password,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: *insecure}},
	})
	if err != nil {
		logger.Error("failed to create opensearch client", logging.Error(err))
		os.Exit(1)
	}

	end := time.Now().UTC()
	gen := NewGenerator(GeneratorConfig{
		Host:            *host,
		Start:           end.Add(-*timeSpread),
		End:             end,
		FailureRate:     *failureRate,
		SourcePool:      *sources,
		DestinationPool: *dests,
	}, *seed)

	docs := gen.Events(*count, *authRatio)
	if *burst > 0 {
		docs = append(docs, gen.BruteForce(*burst, *burstStep)...)
	}

	logger.Info("seeding events",
		logging.Host(*host),
		slog.String("index", *index),
		slog.Int("events", len(docs)),
		slog.Int("burst", *burst),
		slog.Int64("seed", *seed))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	created, err := EnsureIndex(ctx, client, *index)
	if err != nil {
		logger.Error("failed to prepare index", logging.Error(err))
		os.Exit(1)
	}
	if created {
		logger.Info("created index", slog.String("index", *index))
	}

	res, err := Index(ctx, client, *index, docs)
	if err != nil {
		logger.Error("seeding failed", logging.Error(err))
		os.Exit(1)
	}
	for i, e := range res.Errors {
		if i == 5 {
			break
		}
		logger.Warn("index failure", slog.String("reason", e))
	}
	logger.Info("seeding complete", slog.Int64("indexed", res.Indexed), slog.Int64("failed", res.Failed))
	if res.Failed > 0 {
		os.Exit(1)
	}
}

package main

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// GeneratorConfig shapes the events produced for one host.
type GeneratorConfig struct {
	Host        string
	Start       time.Time
	End         time.Time
	FailureRate float64
	// SourcePool and DestinationPool bound the distinct peer addresses.
	SourcePool      int
	DestinationPool int
}

// Generator produces ECS authentication and network events.
type Generator struct {
	cfg          GeneratorConfig
	faker        *gofakeit.Faker
	sources      []string
	destinations []string
	users        []string
}

func NewGenerator(cfg GeneratorConfig, seed int64) *Generator {
	if cfg.SourcePool < 1 {
		cfg.SourcePool = 1
	}
	if cfg.DestinationPool < 1 {
		cfg.DestinationPool = 1
	}
	f := gofakeit.New(seed)
	g := &Generator{cfg: cfg, faker: f}
	for i := 0; i < cfg.SourcePool; i++ {
		g.sources = append(g.sources, f.IPv4Address())
	}
	for i := 0; i < cfg.DestinationPool; i++ {
		g.destinations = append(g.destinations, f.IPv4Address())
	}
	for i := 0; i < 8; i++ {
		g.users = append(g.users, f.Username())
	}
	return g
}

func (g *Generator) timestamp() time.Time {
	span := g.cfg.End.Sub(g.cfg.Start)
	if span <= 0 {
		return g.cfg.Start
	}
	offset := time.Duration(g.faker.Int64()) % span
	if offset < 0 {
		offset = -offset
	}
	return g.cfg.Start.Add(offset)
}

func (g *Generator) pick(pool []string) string {
	return pool[g.faker.Number(0, len(pool)-1)]
}

func (g *Generator) base(ts time.Time, category, action, outcome string) map[string]interface{} {
	return map[string]interface{}{
		"@timestamp": ts.UTC().Format(time.RFC3339Nano),
		"host": map[string]interface{}{
			"name": g.cfg.Host,
		},
		"event": map[string]interface{}{
			"kind":     "event",
			"category": category,
			"action":   action,
			"outcome":  outcome,
		},
	}
}

// Auth returns a login event that fails with the configured rate.
func (g *Generator) Auth() map[string]interface{} {
	outcome := "success"
	if g.faker.Float64Range(0, 1) < g.cfg.FailureRate {
		outcome = "failure"
	}
	doc := g.base(g.timestamp(), "authentication", "user-login", outcome)
	doc["source"] = map[string]interface{}{
		"ip":   g.pick(g.sources),
		"port": g.faker.Number(1024, 65535),
	}
	doc["user"] = map[string]interface{}{
		"name": g.pick(g.users),
	}
	return doc
}

// Network returns a connection event between pooled peers.
func (g *Generator) Network() map[string]interface{} {
	doc := g.base(g.timestamp(), "network", "connection-accepted", "success")
	doc["source"] = map[string]interface{}{
		"ip":   g.pick(g.sources),
		"port": g.faker.Number(1024, 65535),
	}
	doc["destination"] = map[string]interface{}{
		"ip":   g.pick(g.destinations),
		"port": g.faker.RandomInt([]int{22, 53, 80, 443, 3389, 5432}),
	}
	doc["network"] = map[string]interface{}{
		"transport": g.faker.RandomString([]string{"tcp", "udp"}),
	}
	return doc
}

// BruteForce returns n failed logins from a single new address, spaced
// evenly across the last step*n of the range.
func (g *Generator) BruteForce(n int, step time.Duration) []map[string]interface{} {
	attacker := g.faker.IPv4Address()
	user := g.faker.RandomString([]string{"root", "admin", "administrator"})
	start := g.cfg.End.Add(-step * time.Duration(n))

	docs := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		doc := g.base(start.Add(step*time.Duration(i)), "authentication", "user-login", "failure")
		doc["source"] = map[string]interface{}{
			"ip":   attacker,
			"port": g.faker.Number(1024, 65535),
		}
		doc["user"] = map[string]interface{}{"name": user}
		docs = append(docs, doc)
	}
	return docs
}

// Events returns count events, authRatio of them authentication events.
func (g *Generator) Events(count int, authRatio float64) []map[string]interface{} {
	docs := make([]map[string]interface{}, 0, count)
	for i := 0; i < count; i++ {
		if g.faker.Float64Range(0, 1) < authRatio {
			docs = append(docs, g.Auth())
		} else {
			docs = append(docs, g.Network())
		}
	}
	return docs
}

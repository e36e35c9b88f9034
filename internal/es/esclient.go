package es

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/employee_registry/internal/config"
)

// NewClient connects to the cluster named by cfg and verifies it answers.
func NewClient(ctx context.Context, cfg *config.Config) (*elasticsearch.Client, error) {
	return Connect(ctx, elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
}

func Connect(ctx context.Context, esCfg elasticsearch.Config) (*elasticsearch.Client, error) {
	slog.Info("connecting to elasticsearch", "addresses", esCfg.Addresses)

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info returned %s: %s", res.Status(), body)
	}

	slog.Info("connected to elasticsearch")
	return client, nil
}

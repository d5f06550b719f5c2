//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"instancecat/internal/app/config"
)

func InitializeApplication(ctx context.Context, cfg config.Config, logging LoggingConfig) (*Application, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}

package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/api/server"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/access"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/eventlog"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/subscription"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/platform/db"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/platform/directory"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/config"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	directory.Module,
	server.Module,
	subscription.Module,
	eventlog.Module,
	access.Module,
)

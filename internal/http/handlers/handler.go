package handlers

import (
	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/internal/api"
	"github.com/Nemanja264/Servizo/internal/cart"
	"github.com/Nemanja264/Servizo/internal/cash"
	"github.com/Nemanja264/Servizo/internal/config"
	"github.com/Nemanja264/Servizo/internal/dashboard"
	"github.com/Nemanja264/Servizo/internal/kv"
	"github.com/Nemanja264/Servizo/internal/orders"
	"github.com/Nemanja264/Servizo/internal/session"
)

type Handler struct {
	Logger   *zap.Logger
	Config   config.Config
	API      *api.Client
	Store    kv.Store
	Resolver *session.Resolver
	Carts    *cart.Store
	Tracker  *orders.Tracker
	Poller   *dashboard.Poller
	Signaler *cash.Signaler
}

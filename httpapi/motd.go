package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// handleMOTD implements GET /motd: aggregated node status plus the
// network constants clients need for mining and wallets.
func (s *Server) handleMOTD(c echo.Context) error {
	motd, motdDate := s.Fast.MOTD()
	if motd == "" {
		motd = "Welcome to Tenebra"
		motdDate = time.Now().UTC()
	}

	return ok(c, http.StatusOK, echo.Map{
		"motd":             motd,
		"motd_set":         motdDate,
		"public_url":       s.Cfg.PublicURL,
		"mining_enabled":   s.Fast.MiningEnabled(),
		"staking_enabled":  s.Fast.StakingEnabled(),
		"current_validator": s.Staking.Validator(),
		"work":             s.Fast.Work(),
		"constants": echo.Map{
			"wallet_version":    s.Cfg.WalletVersion,
			"nonce_max_size":    s.Cfg.NonceMaxSize,
			"name_cost":         s.Cfg.NameCost,
			"min_work":          s.Cfg.MinWork,
			"max_work":          s.Cfg.MaxWork,
			"work_factor":       s.Cfg.WorkFactor,
			"seconds_per_block": s.Cfg.SecondsPerBlock,
			"address_prefix":    s.Cfg.AddressPrefix,
			"name_suffix":       s.Cfg.NameSuffix,
		},
	})
}

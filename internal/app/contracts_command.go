package app

import (
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/ggonzalez94/xswap-sdk/internal/id"
	"github.com/ggonzalez94/xswap-sdk/internal/model"
	"github.com/spf13/cobra"
)

func (s *runtimeState) newContractsCommand() *cobra.Command {
	var chainArg string
	var beta bool
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Show Universal Router, Permit2 and WETH deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := trimRootPath(cmd.CommandPath())
			if chainArg == "" {
				views := make([]model.ContractsView, 0)
				for _, chainID := range s.registry.ChainIDs() {
					cfg, _ := s.registry.Lookup(chainID)
					views = append(views, contractsView(chainID, cfg))
				}
				return s.emitSuccess(path, views, nil, cacheMetaBypass(), nil)
			}

			chain, err := id.ParseChain(chainArg)
			if err != nil {
				return err
			}
			cfg, ok := s.registry.Lookup(chain.EVMChainID)
			if !ok {
				return sdkerr.UnsupportedNetwork(chain.EVMChainID, "Universal Router", false)
			}
			if beta {
				// --beta fails on chains without a beta router.
				if _, err := s.registry.UniversalRouterAddress(chain.EVMChainID, true); err != nil {
					return err
				}
			}
			return s.emitSuccess(path, contractsView(chain.EVMChainID, cfg), nil, cacheMetaBypass(), nil)
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "", "Chain identifier (xdc, apothem, eip155:50, 50); all chains when omitted")
	cmd.Flags().BoolVar(&beta, "beta", false, "Require the beta Universal Router deployment")
	return cmd
}

func (s *runtimeState) newConstantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "constants",
		Short: "Show router sentinels and Permit2 maxima",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), constantsView(), nil, cacheMetaBypass(), nil)
		},
	}
}

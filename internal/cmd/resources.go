package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/legaltime/internal/api"
	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/ux"
)

// resource describes a read-only collection command.
type resource[T any] struct {
	name    string
	short   string
	require authz.Capability
	pick    func(*api.Service) api.Collection[T]
	render  func([]T) ux.Tabler
}

func (r resource[T]) command() *cobra.Command {
	parent := &cobra.Command{
		Use:   r.name,
		Short: r.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + r.name,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Require(r.require); err != nil {
				return err
			}
			items, err := r.pick(a.API).List(cmd.Context(), pageFlags(cmd))
			if err != nil {
				return err
			}
			return cc.Output(r.render(items))
		},
	}
	addPageFlags(list)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one of " + r.name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cc, a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Require(r.require); err != nil {
				return err
			}
			item, err := r.pick(a.API).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !cc.Text() {
				return cc.Output(item)
			}
			return cc.Output(r.render([]T{*item}))
		},
	}

	parent.AddCommand(list, show)
	return parent
}

func init() {
	rootCmd.AddCommand(
		resource[api.Client]{
			name:    "clients",
			short:   "Browse clients",
			require: authz.CapViewClients,
			pick:    func(s *api.Service) api.Collection[api.Client] { return s.Clients },
			render:  func(l []api.Client) ux.Tabler { return ux.Clients(l) },
		}.command(),
		resource[api.Contract]{
			name:    "contracts",
			short:   "Browse contracts",
			require: authz.CapViewContracts,
			pick:    func(s *api.Service) api.Collection[api.Contract] { return s.Contracts },
			render:  func(l []api.Contract) ux.Tabler { return ux.Contracts(l) },
		}.command(),
		resource[api.Matter]{
			name:    "matters",
			short:   "Browse matters",
			require: authz.CapViewMatters,
			pick:    func(s *api.Service) api.Collection[api.Matter] { return s.Matters },
			render:  func(l []api.Matter) ux.Tabler { return ux.Matters(l) },
		}.command(),
		resource[api.Employee]{
			name:    "employees",
			short:   "Browse employees (administrators)",
			require: authz.CapManageEmployees,
			pick:    func(s *api.Service) api.Collection[api.Employee] { return s.Employees },
			render:  func(l []api.Employee) ux.Tabler { return ux.Employees(l) },
		}.command(),
		resource[api.Rate]{
			name:    "rates",
			short:   "Browse billing rates (senior lawyers and administrators)",
			require: authz.CapManageRates,
			pick:    func(s *api.Service) api.Collection[api.Rate] { return s.Rates },
			render:  func(l []api.Rate) ux.Tabler { return ux.Rates(l) },
		}.command(),
		resource[api.ActivityType]{
			name:    "activity-types",
			short:   "Browse activity types",
			require: authz.CapViewTimeEntries,
			pick:    func(s *api.Service) api.Collection[api.ActivityType] { return s.ActivityTypes },
			render:  func(l []api.ActivityType) ux.Tabler { return ux.ActivityTypes(l) },
		}.command(),
	)
}

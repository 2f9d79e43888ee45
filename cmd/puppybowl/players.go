package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/riskibarqy/puppy-bowl/internal/app"
	"github.com/riskibarqy/puppy-bowl/internal/config"
	"github.com/riskibarqy/puppy-bowl/internal/domain/player"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type playersOptions struct {
	baseURL string
	cohort  string
	asJSON  bool
}

type playerOutput struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Breed    string `json:"breed"`
	Status   string `json:"status"`
	Team     string `json:"team"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func newPlayersCmd() *cobra.Command {
	opts := &playersOptions{}

	cmd := &cobra.Command{
		Use:   "players",
		Short: "Work with the remote roster from the terminal",
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Roster API base URL (overrides PUPPYBOWL_BASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.cohort, "cohort", "", "Cohort path segment (overrides PUPPYBOWL_COHORT)")
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")

	cmd.AddCommand(
		newPlayersListCmd(opts),
		newPlayersGetCmd(opts),
		newPlayersAddCmd(opts),
		newPlayersRemoveCmd(opts),
	)
	return cmd
}

func newPlayersListCmd(opts *playersOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every player on the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := opts.source()
			if err != nil {
				return err
			}
			players, err := source.ListPlayers(commandContext(cmd))
			if err != nil {
				return err
			}
			return printPlayers(cmd.OutOrStdout(), players, opts.asJSON)
		},
	}
}

func newPlayersGetCmd(opts *playersOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			source, err := opts.source()
			if err != nil {
				return err
			}
			item, err := source.GetPlayer(commandContext(cmd), playerID)
			if err != nil {
				return err
			}
			return printPlayers(cmd.OutOrStdout(), []player.Player{item}, opts.asJSON)
		},
	}
}

func newPlayersAddCmd(opts *playersOptions) *cobra.Command {
	var input player.CreateInput
	var status string

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a puppy to the roster",
		Example: `  puppybowl players add --name Rex --breed Labrador --status field`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := opts.source()
			if err != nil {
				return err
			}
			input.Status = player.Status(status)
			created, err := source.CreatePlayer(commandContext(cmd), input)
			if err != nil {
				return err
			}
			if !opts.asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(created.Name+" was added to the roster."))
			}
			return printPlayers(cmd.OutOrStdout(), []player.Player{created}, opts.asJSON)
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "Puppy name (required)")
	cmd.Flags().StringVar(&input.Breed, "breed", "", "Puppy breed (required)")
	cmd.Flags().StringVar(&input.ImageURL, "image-url", "", "Image URL")
	cmd.Flags().StringVar(&status, "status", string(player.DefaultStatus), "Roster status: bench or field")
	return cmd
}

func newPlayersRemoveCmd(opts *playersOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a player from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			source, err := opts.source()
			if err != nil {
				return err
			}
			if err := source.DeletePlayer(commandContext(cmd), playerID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), noticeStyle.Render(fmt.Sprintf("Player #%d was removed from the roster.", playerID)))
			return nil
		},
	}
}

func (o *playersOptions) source() (player.Source, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.PuppyBowlBaseURL = strings.TrimRight(strings.TrimSpace(o.baseURL), "/")
	}
	if o.cohort != "" {
		cfg.PuppyBowlCohort = o.cohort
	}
	// Commands print their own errors; keep client warnings off the terminal.
	return app.NewClient(cfg, logging.NewNop(), nil)
}

func printPlayers(w io.Writer, players []player.Player, asJSON bool) error {
	rows := make([]playerOutput, 0, len(players))
	for _, item := range players {
		rows = append(rows, playerOutput{
			ID:       item.ID,
			Name:     item.Name,
			Breed:    item.Breed,
			Status:   string(item.Status),
			Team:     item.TeamName(),
			ImageURL: item.ImageURL,
		})
	}

	if asJSON {
		raw, err := sonic.ConfigDefault.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("encode players: %w", err)
		}
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No players on the roster yet.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "BREED", "STATUS", "TEAM").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(strconv.FormatInt(r.ID, 10), r.Name, r.Breed, r.Status, r.Team)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func parseID(raw string) (int64, error) {
	playerID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || playerID <= 0 {
		return 0, fmt.Errorf("invalid player id %q", raw)
	}
	return playerID, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pbaille/blog/internal/api"
	"github.com/pbaille/blog/internal/config"
	"github.com/pbaille/blog/internal/domain"
	"github.com/pbaille/blog/internal/fetcher"
	"github.com/pbaille/blog/internal/moderation"
	"github.com/pbaille/blog/internal/store"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

type app struct {
	cfg *config.Config
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:          "blog",
		Short:        "Blog entries with emoji-aware content moderation",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.cfg.Validate()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DB, "db", cfg.DB, "SQLite path or postgres:// URL")
	flags.StringVar(&cfg.ModerationFile, "moderation", cfg.ModerationFile, "YAML file with moderation keyword lists")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")

	rootCmd.AddCommand(a.serveCmd())
	rootCmd.AddCommand(a.addCmd())
	rootCmd.AddCommand(a.updateCmd())
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.showCmd())
	rootCmd.AddCommand(a.searchCmd())
	rootCmd.AddCommand(a.deleteCmd())
	rootCmd.AddCommand(a.checkCmd())
	rootCmd.AddCommand(a.importCmd())

	return rootCmd
}

func (a *app) getStore() (*store.Store, error) {
	if !a.cfg.IsPostgres() {
		// Ensure directory exists
		dir := filepath.Dir(a.cfg.DB)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return store.New(a.cfg.DB)
}

func (a *app) getModerator() (*moderation.Moderator, error) {
	mc, err := a.cfg.Moderation()
	if err != nil {
		return nil, err
	}
	return moderation.New(mc)
}

// saveEntry applies the same checks as the HTTP handlers before writing
func saveEntry(ctx context.Context, s *store.Store, m *moderation.Moderator, e *domain.Entry) (*domain.Entry, error) {
	if e.Emoji == "" {
		return nil, domain.EmojiMissing()
	}
	if err := m.Validate(e.Title, e.Content, e.Emoji); err != nil {
		return nil, err
	}
	return s.Save(ctx, e)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.cfg.Logger(os.Stderr)
			if err != nil {
				return err
			}
			m, err := a.getModerator()
			if err != nil {
				return err
			}
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.New(s, api.Options{
				Addr:      a.cfg.Addr,
				AppName:   a.cfg.AppName,
				Moderator: m,
				Logger:    logger,
			})
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&a.cfg.Addr, "addr", "a", a.cfg.Addr, "server address")
	cmd.Flags().StringVar(&a.cfg.AppName, "app-name", a.cfg.AppName, "application name used in alert headers")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var title, emoji string

	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a new entry",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := domain.ParseEmoji(emoji)
			if err != nil {
				return err
			}
			m, err := a.getModerator()
			if err != nil {
				return err
			}
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			entry, err := saveEntry(cmd.Context(), s, m, &domain.Entry{
				Title:   title,
				Content: strings.Join(args, " "),
				Emoji:   e,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added entry: %d\n", *entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "entry title")
	cmd.Flags().StringVarP(&emoji, "emoji", "e", "", "reaction emoji (LIKE, LOVE, LAUGH, WOW, SAD, ANGRY)")
	cmd.MarkFlagRequired("emoji")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var title, content, emoji string

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update an existing entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := a.getModerator()
			if err != nil {
				return err
			}
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			entry, err := s.FindOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				entry.Title = title
			}
			if cmd.Flags().Changed("content") {
				entry.Content = content
			}
			if cmd.Flags().Changed("emoji") {
				if entry.Emoji, err = domain.ParseEmoji(emoji); err != nil {
					return err
				}
			}

			if _, err := saveEntry(cmd.Context(), s, m, entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated entry: %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "new content")
	cmd.Flags().StringVarP(&emoji, "emoji", "e", "", "new reaction emoji")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var limit, page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || page < 0 {
				return fmt.Errorf("invalid page %d or limit %d", page, limit)
			}
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.FindAll(cmd.Context(), domain.PageRequest{Page: page, Size: limit, Sort: "id", Desc: true})
			if err != nil {
				return err
			}

			if len(p.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries yet. Use 'blog add' to create one.")
				return nil
			}

			printEntries(cmd.OutOrStdout(), p.Entries)
			fmt.Fprintf(cmd.OutOrStdout(), "(page %d of %d, %d entries)\n", page+1, p.TotalPages(), p.Total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().IntVarP(&page, "page", "p", 0, "page number, starting at 0")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show entry details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			entry, err := s.FindOne(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %d\n", *entry.ID)
			fmt.Fprintf(out, "Created: %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Emoji:   %s\n", entry.Emoji)
			fmt.Fprintf(out, "Title:   %s\n", entry.Title)
			fmt.Fprintf(out, "Content:\n%s\n", entry.Content)
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.Search(cmd.Context(), args[0], domain.PageRequest{Size: limit, Sort: "id", Desc: true})
			if err != nil {
				return err
			}

			if len(p.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching entries found.")
				return nil
			}

			printEntries(cmd.OutOrStdout(), p.Entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry: %d\n", id)
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var title, emoji string

	cmd := &cobra.Command{
		Use:   "check [content]",
		Short: "Run the content moderator without saving",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := domain.ParseEmoji(emoji)
			if err != nil {
				return err
			}
			m, err := a.getModerator()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			d := m.Check(title, strings.Join(args, " "), e)
			fmt.Fprintf(out, "Checked against %s words: %s\n", d.Wordlist, strings.Join(m.Words(e), ", "))
			if d.Rejected() {
				fmt.Fprintf(out, "Rejected: %q found in %s\n", d.Keyword, d.Field)
				return domain.InvalidContent()
			}
			fmt.Fprintln(out, "Accepted")
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "entry title")
	cmd.Flags().StringVarP(&emoji, "emoji", "e", "", "reaction emoji")
	cmd.MarkFlagRequired("emoji")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var emoji string

	cmd := &cobra.Command{
		Use:   "import [url]",
		Short: "Create an entry from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !fetcher.IsURL(args[0]) {
				return fmt.Errorf("not a URL: %s", args[0])
			}
			e, err := domain.ParseEmoji(emoji)
			if err != nil {
				return err
			}
			m, err := a.getModerator()
			if err != nil {
				return err
			}
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprint(cmd.OutOrStdout(), "Fetching... ")
			doc, err := fetcher.New().Fetch(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "failed")
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "done")

			title := doc.Title
			if title == "" {
				title = doc.URL
			}
			entry, err := saveEntry(cmd.Context(), s, m, &domain.Entry{Title: title, Content: doc.Text, Emoji: e})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added entry: %d\n", *entry.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Title: %s\n", truncate(entry.Title, 80))
			return nil
		},
	}

	cmd.Flags().StringVarP(&emoji, "emoji", "e", "", "reaction emoji")
	cmd.MarkFlagRequired("emoji")
	return cmd
}

func printEntries(w io.Writer, entries []domain.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%-6d %-6s %s  %s\n", *e.ID, e.Emoji, truncate(e.Title, 30), truncate(e.Content, 40))
	}
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}

// exitCode is 2 for moderation rejections so scripts can tell them apart
func exitCode(err error) int {
	if errors.Is(err, domain.ErrInvalidContent) {
		return 2
	}
	return 1
}

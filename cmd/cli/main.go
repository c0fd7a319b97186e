package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/wontivero/infotechLibros/internal/catalog"
	"github.com/wontivero/infotechLibros/internal/config"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/internal/orders"
	"github.com/wontivero/infotechLibros/internal/store"
	"github.com/wontivero/infotechLibros/migrations"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:           "libros",
	Short:         "Maintenance commands for the order desk",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var addUserCmd = &cobra.Command{
	Use:   "add-user",
	Short: "Create a staff login",
	RunE:  runAddUser,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export-csv [file]",
	Short: "Write every order as CSV to a file, or stdout when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var seedCmd = &cobra.Command{
	Use:   "seed-books <file.yaml>",
	Short: "Add the books listed in a YAML file to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: DB_PATH or the config file)")

	addUserCmd.Flags().String("username", "", "Username for the new user")
	addUserCmd.Flags().String("password", "", "Password for the new user")
	addUserCmd.MarkFlagRequired("username")
	addUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(addUserCmd, migrateCmd, exportCmd, seedCmd)
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openStore opens the configured database and brings its schema up to date,
// so every command works against a fresh file.
func openStore(ctx context.Context) (*store.Store, error) {
	path := dbPath
	if path == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.DBPath
	}
	db, err := store.NewStore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.MigrateFS(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func runAddUser(cmd *cobra.Command, _ []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := db.CreateUser(cmd.Context(), username, string(hashedPassword)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "User '%s' created successfully.\n", username)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := db.ListOrders(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		name := args[0]
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			name = filepath.Join(name, orders.ExportFilename(time.Now(), cfg.Location))
		}
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
		fmt.Fprintf(cmd.ErrOrStderr(), "Writing %d orders to %s\n", len(list), name)
	}
	return orders.WriteCSV(out, list, cfg.Location)
}

// seedBook is one entry of a seed file. Prices are optional and derived from
// the page count when left out.
type seedBook struct {
	Title      string `yaml:"title"`
	Publisher  string `yaml:"publisher"`
	Pages      int    `yaml:"pages"`
	PriceMono  string `yaml:"price_mono"`
	PriceColor string `yaml:"price_color"`
	Waitlist   bool   `yaml:"waitlist"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var seeds []seedBook
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	for i, s := range seeds {
		book, err := s.toBook()
		if err != nil {
			return fmt.Errorf("entry %d (%q): %w", i+1, s.Title, err)
		}
		if err := db.CreateBook(cmd.Context(), book); err != nil {
			return fmt.Errorf("entry %d (%q): %w", i+1, s.Title, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d books.\n", len(seeds))
	return nil
}

func (s seedBook) toBook() (*models.Book, error) {
	if s.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	mono, color := catalog.PagePrices(s.Pages)
	var err error
	if s.PriceMono != "" {
		if mono, err = decimal.NewFromString(s.PriceMono); err != nil {
			return nil, fmt.Errorf("price_mono: %w", err)
		}
	}
	if s.PriceColor != "" {
		if color, err = decimal.NewFromString(s.PriceColor); err != nil {
			return nil, fmt.Errorf("price_color: %w", err)
		}
	}
	return &models.Book{
		Title:      s.Title,
		Publisher:  s.Publisher,
		Pages:      s.Pages,
		PriceMono:  mono,
		PriceColor: color,
		Waitlist:   s.Waitlist,
	}, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayoubbns/document-control-api/internal/config"
	"github.com/ayoubbns/document-control-api/internal/database"
	"github.com/ayoubbns/document-control-api/internal/logging"
	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/ayoubbns/document-control-api/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docflow: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "docflow",
		Short:        "Document control development CLI",
		Long:         `docflow bundles common development tasks: running migrations, seeding an admin account, sweeping expired retention deadlines, and launching the binaries directly.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newMigrateCmd(),
		newCreateAdminCmd(),
		newSweepCmd(),
		newRunCmd(),
	)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := database.Connect(cfg); err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			if err := database.Migrate(); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Seed an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := database.Connect(cfg); err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			if err := database.Migrate(); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user := &models.User{
				Username:     username,
				Email:        email,
				PasswordHash: string(hash),
				IsAdmin:      true,
			}
			if err := repository.NewUserRepository(database.GetDB()).Create(user); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Printf("admin %q created (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "Admin username")
	cmd.Flags().StringVar(&email, "email", "admin@docflow.local", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Restore archived items past their retention deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logging.Must(cfg.GinMode)
			defer logger.Sync()

			if err := database.Connect(cfg); err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			db := database.GetDB()
			archiveService := services.NewArchiveService(
				db,
				repository.NewFolderRepository(db),
				repository.NewDocumentRepository(db),
				repository.NewArchiveRepository(db),
				repository.NewActionLogRepository(db),
				logger,
			)
			if err := archiveService.ExpireRetention(); err != nil {
				return fmt.Errorf("retention sweep: %w", err)
			}
			fmt.Println("retention sweep complete")
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run individual Go binaries directly",
	}
	cmd.AddCommand(
		newServiceRunner("server", "./cmd/server"),
		newServiceRunner("worker", "./cmd/worker"),
	)
	return cmd
}

func newServiceRunner(name, path string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("go run %s", path),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			goArgs := []string{"run", path}
			goArgs = append(goArgs, args...)
			return runCommand(ctx, "go", goArgs...)
		},
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	execCmd := exec.CommandContext(ctx, name, args...)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin
	return execCmd.Run()
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bookshelf/book-api/internal/api/handler"
	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
	"github.com/bookshelf/book-api/internal/core/service"
	"github.com/bookshelf/book-api/internal/pkg/config"
	"github.com/bookshelf/book-api/pkg/logger"
)

var errNoPostgres = errors.New("migrate only applies to STORE_DRIVER=postgres")

// migrate applies the embedded schema migrations and exits.
func migrate() error {
	cfg, log := setup()
	if cfg.StoreDriver != config.DriverPostgres {
		return errNoPostgres
	}

	b := &backend{checks: map[string]handler.Check{}}
	defer b.Close()
	return b.openPostgres(context.Background(), cfg, log, true)
}

func hashPassword() error {
	password, err := readPassword("Enter password: ")
	if err != nil {
		return err
	}

	hashed, err := service.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	fmt.Printf("\nHashed password: %s\n", hashed)
	return nil
}

func createUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	username := fs.String("username", "", "login name (required)")
	name := fs.String("name", "", "display name")
	roles := fs.String("roles", domain.RoleUser, "comma-separated roles, e.g. USER,ADMIN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		fs.Usage()
		return errors.New("-username is required")
	}

	password, err := readPassword("Enter password for " + *username + ": ")
	if err != nil {
		return err
	}
	fmt.Println()

	cfg, log := setup()
	ctx := context.Background()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	users := service.NewUserService(b.users, b.cache, logger.Component("user_service"))
	user, err := users.Create(ctx, ports.CreateUserInput{
		Name:        *name,
		Username:    *username,
		Password:    password,
		Authorities: domain.ParseAuthorities(*roles),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s (id %d) with roles %s\n", user.Username, user.ID, domain.JoinAuthorities(user.Authorities))
	return nil
}

// readPassword prompts on a terminal without echo, or reads one line when
// stdin is piped.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print(prompt)
	raw, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("empty password")
	}
	return string(raw), nil
}

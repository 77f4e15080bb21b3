package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	library "github.com/goliatone/go-library"
	"github.com/goliatone/go-library/activitymap"
)

// readPassword is swapped out in tests
var readPassword = term.ReadPassword

func newAdminCommand() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account, usually the first super admin",
		RunE:  runCreateAdmin,
	}
	create.Flags().String("username", "", "admin username")
	create.Flags().String("email", "", "admin email")
	create.Flags().String("password", "", "admin password, prompted when empty")
	create.Flags().Bool("super-admin", false, "grant the super admin permission")

	admin.AddCommand(create)
	return admin
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	a, err := load(cmd)
	if err != nil {
		return err
	}

	req, err := adminRequestFromFlags(cmd, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := library.NewRepositoryManager(db)
	handler := library.NewCreateAdminHandler(
		repo,
		library.NewBcryptHasher(a.cfg.GetBcryptCost()),
		activitymap.LogrusSink(a.logger.With("logger", "activity").Entry()),
		a.logger.GetLogger("admin"),
	)

	var created *library.AdminAccount
	err = handler.Execute(ctx, library.CreateAdminMessage{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Permissions: req.Permissions,
		Actor:       library.Anonymous(),
		OnResponse: func(admin *library.AdminAccount) {
			created = admin
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", created.Username, created.ID)
	return nil
}

func adminRequestFromFlags(cmd *cobra.Command, in *bufio.Reader, out io.Writer) (library.CreateAdminRequest, error) {
	flags := cmd.Flags()
	username, _ := flags.GetString("username")
	email, _ := flags.GetString("email")
	password, _ := flags.GetString("password")
	super, _ := flags.GetBool("super-admin")

	var err error
	if username == "" {
		if username, err = prompt(in, out, "Username: "); err != nil {
			return library.CreateAdminRequest{}, err
		}
	}

	if password == "" {
		if password, err = promptPassword(in, out); err != nil {
			return library.CreateAdminRequest{}, err
		}
	}

	req := library.CreateAdminRequest{
		Username: username,
		Email:    email,
		Password: password,
	}
	if super {
		req.Permissions = &library.PermissionsPatch{SuperAdmin: &super}
	}
	return req, nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo on a terminal and falls back to a plain
// line read otherwise.
func promptPassword(in *bufio.Reader, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(in, out, "Password: ")
	}

	fmt.Fprint(out, "Password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pw)), nil
}

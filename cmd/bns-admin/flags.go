package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // validator caches struct metadata
var validate = validator.New(validator.WithRequiredStructEnabled())

type timeoutOptions struct {
	Timeout time.Duration `validate:"gt=0"`
}

type setRoleOptions struct {
	Timeout time.Duration `validate:"gt=0"`
	Email   string        `validate:"required,email"`
	Role    string        `validate:"required,oneof=admin editor author viewer"`
}

type deleteUserOptions struct {
	Timeout time.Duration `validate:"gt=0"`
	Email   string        `validate:"required,email"`
	Yes     bool
}

type dbResetOptions struct {
	Timeout     time.Duration `validate:"gt=0"`
	Yes         bool
	AllowRemote bool
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseTimeoutFlags(name string, args []string, out io.Writer) (timeoutOptions, error) {
	fs := newFlagSet(name, out)
	opts := timeoutOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the command to complete")
	if err := fs.Parse(args); err != nil {
		return timeoutOptions{}, err
	}
	if err := checkOptions(opts); err != nil {
		return timeoutOptions{}, err
	}
	return opts, nil
}

func parseSetRoleFlags(args []string, out io.Writer) (setRoleOptions, error) {
	fs := newFlagSet("set-role", out)
	opts := setRoleOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", time.Minute, "Maximum duration to wait for the update")
	fs.StringVar(&opts.Email, "email", "", "Email address of the user (required)")
	fs.StringVar(&opts.Role, "role", "", "Role to assign: admin, editor, author or viewer (required)")
	if err := fs.Parse(args); err != nil {
		return setRoleOptions{}, err
	}
	opts.Email = strings.TrimSpace(opts.Email)
	opts.Role = strings.ToLower(strings.TrimSpace(opts.Role))
	if err := checkOptions(opts); err != nil {
		return setRoleOptions{}, err
	}
	return opts, nil
}

func parseDeleteUserFlags(args []string, out io.Writer) (deleteUserOptions, error) {
	fs := newFlagSet("delete-user", out)
	opts := deleteUserOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", time.Minute, "Maximum duration to wait for the delete")
	fs.StringVar(&opts.Email, "email", "", "Email address of the user (required)")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return deleteUserOptions{}, err
	}
	opts.Email = strings.TrimSpace(opts.Email)
	if err := checkOptions(opts); err != nil {
		return deleteUserOptions{}, err
	}
	return opts, nil
}

func parseDBResetFlags(args []string, out io.Writer) (dbResetOptions, error) {
	fs := newFlagSet("db-reset", out)
	opts := dbResetOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for reset operations to complete")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit running against database hosts that do not look local")
	if err := fs.Parse(args); err != nil {
		return dbResetOptions{}, err
	}
	if err := checkOptions(opts); err != nil {
		return dbResetOptions{}, err
	}
	return opts, nil
}

// checkOptions validates parsed flags and reports them by flag name.
func checkOptions(opts any) error {
	err := validate.Struct(opts)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, flagMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func flagMessage(fe validator.FieldError) string {
	name := "--" + strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "oneof":
		return name + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return name + " must be greater than zero"
	default:
		return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"

	"github.com/spf13/pflag"
)

type command struct {
	summary string
	run     func(ctx context.Context, c *cli, name string, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":           {"log in with email and password, or a Google credential", cmdLogin},
		"logout":          {"end the session", cmdLogout},
		"whoami":          {"show the current session", cmdWhoami},
		"register":        {"create an account", cmdRegister},
		"forgot-password": {"email a password reset link", cmdForgotPassword},
		"reset-password":  {"set a new password with a reset token", cmdResetPassword},
		"dashboard":       {"summarize every month", cmdDashboard},
		"months":          {"list financial months", cmdMonths},
		"month":           {"show one month with its summary", cmdMonth},
		"add-month":       {"create a month: --period YYYY-MM --income N", cmdAddMonth},
		"set-income":      {"change the income of a month", cmdSetIncome},
		"rm-month":        {"delete a month and its bills", cmdRemoveMonth},
		"bills":           {"list the bills of a month", cmdBills},
		"add-bill":        {"add a bill to a month", cmdAddBill},
		"edit-bill":       {"replace a bill", cmdEditBill},
		"rm-bill":         {"delete a bill", cmdRemoveBill},
		"users":           {"list users (admin)", cmdUsers},
		"toggle-ban":      {"ban or unban a user (admin)", cmdToggleBan},
		"rm-user":         {"delete a user (admin)", cmdRemoveUser},
	}
}

// ============================================================
// Session
// ============================================================

func cmdLogin(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	email := fs.String("email", "", "account email")
	google := fs.String("google-credential", "", "Google ID token instead of a password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.open("/login"); err != nil {
		return err
	}

	var (
		res *domain.LoginResult
		err error
	)
	if *google != "" {
		res, err = c.app.Auth.GoogleLogin(ctx, *google)
	} else {
		if *email == "" {
			return errors.New("--email is required")
		}
		password, perr := c.readPassword("Password: ")
		if perr != nil {
			return perr
		}
		res, err = c.app.Auth.Login(ctx, *email, password)
	}
	if domain.Kind(err) == domain.KindUnauthorized {
		return errors.New("login failed: credentials were rejected")
	}
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(res.Session)
}

func cmdLogout(_ context.Context, c *cli, _ string, _ []string) error {
	if err := c.open("/logout"); err != nil {
		return err
	}
	c.app.Auth.Logout()
	fmt.Fprintln(c.out, "logged out")
	return nil
}

func cmdWhoami(_ context.Context, c *cli, _ string, _ []string) error {
	if err := c.open("/session"); err != nil {
		return err
	}
	return c.printJSON(c.app.Session.State())
}

func cmdRegister(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	var req domain.RegisterRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.FirstName, "first-name", "", "first name")
	fs.StringVar(&req.LastName, "last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.open("/register"); err != nil {
		return err
	}

	password, err := c.readPassword("New password: ")
	if err != nil {
		return err
	}
	req.Password = password

	res, err := c.app.Auth.Register(ctx, req)
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(res)
}

func cmdForgotPassword(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.open("/forgot-password"); err != nil {
		return err
	}

	res, err := c.app.Auth.ForgotPassword(ctx, *email)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.out, res.Message)
	return nil
}

func cmdResetPassword(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	var req domain.ResetPasswordRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Token, "token", "", "token from the reset email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.open("/reset-password"); err != nil {
		return err
	}

	password, err := c.readPassword("New password: ")
	if err != nil {
		return err
	}
	req.NewPassword = password

	res, err := c.app.Auth.ResetPassword(ctx, req)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.out, res.Message)
	return nil
}

// ============================================================
// Ledger
// ============================================================

func cmdDashboard(ctx context.Context, c *cli, _ string, _ []string) error {
	if err := c.open("/money"); err != nil {
		return err
	}

	v := service.Mount(ctx, "dashboard")
	defer v.Unmount()

	dash, err := c.app.Dashboard.Load(v)
	if err != nil {
		return c.fail(err)
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tPERIOD\tINCOME\tSPENT\tREMAINING\t")
	for _, m := range dash.Months {
		remaining := m.Remaining.StringFixed(2)
		if m.Overspent {
			remaining += " !"
		}
		fmt.Fprintf(tw, "%d\t%s %d\t%s\t%s\t%s\t\n",
			m.MonthID, m.Month, m.Year,
			m.TotalIncome.StringFixed(2), m.TotalSpent.StringFixed(2), remaining)
	}
	fmt.Fprintf(tw, "\t%d months\t%s\t%s\t%s\t\n",
		dash.Totals.Months,
		dash.Totals.TotalIncome.StringFixed(2),
		dash.Totals.TotalSpent.StringFixed(2),
		dash.Totals.Remaining.StringFixed(2))
	return tw.Flush()
}

func cmdMonths(ctx context.Context, c *cli, _ string, _ []string) error {
	if err := c.open("/money/months"); err != nil {
		return err
	}
	months, err := c.app.Ledger.ListMonths(ctx)
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(months)
}

func cmdMonth(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := positional(fs.Args(), "MONTH_ID")
	if err != nil {
		return err
	}
	if err := c.open(fmt.Sprintf("/money/months/%d", ids[0])); err != nil {
		return err
	}

	v := service.Mount(ctx, "month")
	defer v.Unmount()

	detail, err := c.app.Dashboard.Month(v, ids[0])
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(detail)
}

func cmdAddMonth(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	period := fs.String("period", "", "month as YYYY-MM")
	income := fs.String("income", "0", "total income of the month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.open("/money/months"); err != nil {
		return err
	}

	year, month, err := domain.ParseYearMonth(*period)
	if err != nil {
		return c.fail(err)
	}
	amount, err := domain.ParseAmount(*income)
	if err != nil {
		return c.fail(err)
	}

	m, err := c.app.Ledger.CreateMonth(ctx, domain.MonthInput{Year: year, Month: month, TotalIncome: amount})
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(m)
}

func cmdSetIncome(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("expected MONTH_ID INCOME")
	}
	ids, err := positional(fs.Args()[:1], "MONTH_ID")
	if err != nil {
		return err
	}
	if err := c.open(fmt.Sprintf("/money/months/%d", ids[0])); err != nil {
		return err
	}

	amount, err := domain.ParseAmount(fs.Arg(1))
	if err != nil {
		return c.fail(err)
	}
	m, err := c.app.Ledger.UpdateMonth(ctx, ids[0], domain.MonthPatch{TotalIncome: &amount})
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(m)
}

func cmdRemoveMonth(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := positional(fs.Args(), "MONTH_ID")
	if err != nil {
		return err
	}
	if err := c.open(fmt.Sprintf("/money/months/%d", ids[0])); err != nil {
		return err
	}
	if err := c.app.Ledger.DeleteMonth(ctx, ids[0]); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "deleted month %d\n", ids[0])
	return nil
}

func cmdBills(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := positional(fs.Args(), "MONTH_ID")
	if err != nil {
		return err
	}
	if err := c.open(fmt.Sprintf("/money/months/%d/bills", ids[0])); err != nil {
		return err
	}
	bills, err := c.app.Ledger.ListBills(ctx, ids[0])
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(bills)
}

// billFlags returns a flag set for the bill fields and a reader for them.
func billFlags(c *cli, name string) (*pflag.FlagSet, func() (domain.BillInput, error)) {
	set := c.flagSet(name)
	category := set.String("type", "", "category label, e.g. Food")
	amount := set.String("amount", "", "amount spent")
	description := set.String("description", "", "optional note")
	color := set.String("color", "", "display colour as #rrggbb (random when empty)")

	return set, func() (domain.BillInput, error) {
		value, err := domain.ParseAmount(*amount)
		if err != nil {
			return domain.BillInput{}, err
		}
		return domain.BillInput{
			Type:        strings.TrimSpace(*category),
			Amount:      value,
			Description: *description,
			Color:       *color,
		}, nil
	}
}

func cmdAddBill(ctx context.Context, c *cli, name string, args []string) error {
	fs, read := billFlags(c, name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := positional(fs.Args(), "MONTH_ID")
	if err != nil {
		return err
	}
	if err := c.open(fmt.Sprintf("/money/months/%d/bills", ids[0])); err != nil {
		return err
	}

	in, err := read()
	if err != nil {
		return c.fail(err)
	}
	bill, err := c.app.Ledger.CreateBill(ctx, ids[0], in)
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(bill)
}

func cmdEditBill(ctx context.Context, c *cli, name string, args []string) error {
	fs, read := billFlags(c, name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := positional(fs.Args(), "MONTH_ID", "BILL_ID")
	if err != nil {
		return err
	}
	if err := c.open(fmt.Sprintf("/money/months/%d/bills/%d", ids[0], ids[1])); err != nil {
		return err
	}

	in, err := read()
	if err != nil {
		return c.fail(err)
	}
	bill, err := c.app.Ledger.UpdateBill(ctx, ids[0], ids[1], in)
	if err != nil {
		return c.fail(err)
	}
	return c.printJSON(bill)
}

func cmdRemoveBill(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := positional(fs.Args(), "MONTH_ID", "BILL_ID")
	if err != nil {
		return err
	}
	if err := c.open(fmt.Sprintf("/money/months/%d/bills/%d", ids[0], ids[1])); err != nil {
		return err
	}
	if err := c.app.Ledger.DeleteBill(ctx, ids[0], ids[1]); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "deleted bill %d\n", ids[1])
	return nil
}

// ============================================================
// Administration
// ============================================================

func cmdUsers(ctx context.Context, c *cli, name string, args []string) error {
	fs := c.flagSet(name)
	search := fs.String("search", "", "filter by name or email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.open("/admin/users"); err != nil {
		return err
	}

	users, err := c.app.Admin.ListUsers(ctx, *search)
	if err != nil {
		return c.fail(err)
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tBANNED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%t\n", u.ID, u.FirstName, u.LastName, u.Email, u.IsBanned)
	}
	return tw.Flush()
}

func userArg(c *cli, name string, args []string) (string, error) {
	fs := c.flagSet(name)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", errors.New("expected USER_ID")
	}
	return strings.TrimSpace(fs.Arg(0)), nil
}

func cmdToggleBan(ctx context.Context, c *cli, name string, args []string) error {
	id, err := userArg(c, name, args)
	if err != nil {
		return err
	}
	if err := c.open("/admin/users/" + id + "/toggle-ban"); err != nil {
		return err
	}
	if err := c.app.Admin.ToggleBan(ctx, id); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "toggled ban for %s\n", id)
	return nil
}

func cmdRemoveUser(ctx context.Context, c *cli, name string, args []string) error {
	id, err := userArg(c, name, args)
	if err != nil {
		return err
	}
	if err := c.open("/admin/users/" + id); err != nil {
		return err
	}
	if err := c.app.Admin.DeleteUser(ctx, id); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "deleted user %s\n", id)
	return nil
}

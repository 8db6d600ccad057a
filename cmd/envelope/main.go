package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"envelope/internal/cache"
	"envelope/internal/cli"
	"envelope/internal/config"
	"envelope/internal/core"
	"envelope/internal/events"
	"envelope/internal/log"
	"envelope/internal/services"
	"envelope/internal/storage"
)

const usage = `Usage: envelope [-config file] <command> [flags]

Commands:
  init                   create the database and seed starting data
  add-account            create an account
  accounts               list accounts with balances
  add-budget             create a budget category (envelope)
  add-spending           create a spending category under an envelope
  categories             list the category hierarchy
  add                    record a transaction
  transfer               move money between two accounts
  fund                   assign money to an envelope
  transactions           list the transaction log
  summaries              show funded/spent/remaining per envelope
  remaining              show remaining budget for one envelope
`

// app bundles the services every subcommand draws from.
type app struct {
	logger   *log.Logger
	cfg      *config.Config
	store    *storage.SQLiteRepository
	ledger   *services.LedgerService
	budget   *services.BudgetService
	transfer *services.TransferService
	category *services.CategoryService
	events   *events.Client
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	configPath := flag.String("config", os.Getenv("ENVELOPE_CONFIG"), "optional YAML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger, *configPath)
	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	// The event pipeline is optional for the CLI: ledger writes must
	// never depend on the broker being up.
	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		var err error
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without events", log.FieldError, err)
			eventsClient = nil
		} else {
			defer eventsClient.Close()
		}
	}

	summaryCache := cache.NewLRUCache[[]core.CategorySummary](4, 30*time.Second)

	a := &app{
		logger:   logger,
		cfg:      cfg,
		store:    store,
		ledger:   services.NewLedgerService(store, eventsClient, summaryCache),
		budget:   services.NewBudgetService(store, eventsClient, summaryCache),
		transfer: services.NewTransferService(store, eventsClient, summaryCache),
		category: services.NewCategoryService(store),
		events:   eventsClient,
	}

	ctx := context.Background()
	if err := a.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "init":
		// Opening the store already ran migrations and seeds.
		fmt.Println("Database ready at", a.cfg.SQLiteDBPath)
		return nil
	case "add-account":
		return a.addAccount(ctx, args)
	case "accounts":
		return a.listAccounts(ctx)
	case "add-budget":
		return a.addBudgetCategory(ctx, args)
	case "add-spending":
		return a.addSpendingCategory(ctx, args)
	case "categories":
		return a.listCategories(ctx)
	case "add":
		return a.addTransaction(ctx, args)
	case "transfer":
		return a.addTransfer(ctx, args)
	case "fund":
		return a.fundCategory(ctx, args)
	case "transactions":
		return a.listTransactions(ctx, args)
	case "summaries":
		return a.listSummaries(ctx)
	case "remaining":
		return a.remaining(ctx, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) addAccount(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-account", flag.ExitOnError)
	name := fs.String("name", "", "account name")
	accountType := fs.String("type", string(core.Checking), "account type: Cash, Checking, Savings or CreditCard")
	fs.Parse(args)

	id, err := a.ledger.AddAccount(ctx, *name, core.AccountType(*accountType))
	if err != nil {
		return err
	}
	fmt.Printf("Created account %d (%s)\n", id, *name)
	return nil
}

func (a *app) listAccounts(ctx context.Context) error {
	accounts, err := a.ledger.ListAccounts(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE")
	for _, acc := range accounts {
		balance, err := a.ledger.AccountBalance(ctx, acc.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\n", acc.ID, acc.Name, acc.Type, core.Money{Cents: balance}.Units())
	}
	return w.Flush()
}

func (a *app) addBudgetCategory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-budget", flag.ExitOnError)
	name := fs.String("name", "", "budget category name")
	fs.Parse(args)

	id, err := a.category.AddBudgetCategory(ctx, *name)
	if err != nil {
		return err
	}
	fmt.Printf("Created budget category %d (%s)\n", id, *name)
	return nil
}

func (a *app) addSpendingCategory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-spending", flag.ExitOnError)
	name := fs.String("name", "", "spending category name")
	parent := fs.Int64("parent", 0, "parent budget category id")
	fs.Parse(args)

	id, err := a.category.AddSpendingCategory(ctx, *name, *parent)
	if err != nil {
		return err
	}
	fmt.Printf("Created spending category %d (%s) under %d\n", id, *name, *parent)
	return nil
}

func (a *app) listCategories(ctx context.Context) error {
	budgets, err := a.category.ListBudgetCategories(ctx)
	if err != nil {
		return err
	}

	for _, b := range budgets {
		fmt.Printf("%d %s\n", b.ID, b.Name)
		spending, err := a.category.ListSpendingCategoriesFor(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, s := range spending {
			fmt.Printf("  %d %s\n", s.ID, s.Name)
		}
	}
	return nil
}

func (a *app) addTransaction(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	account := fs.Int64("account", 0, "account id")
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	date := fs.String("date", "", "date (YYYY-MM-DD), default today")
	txType := fs.String("type", string(core.Debit), "transaction type: Debit or Credit")
	merchant := fs.String("merchant", "", "merchant")
	description := fs.String("desc", "", "description")
	notes := fs.String("notes", "", "notes")
	budgetCat := fs.Int64("budget", 0, "budget category id")
	spendingCat := fs.Int64("spending", 0, "spending category id")
	fs.Parse(args)

	cents, err := core.ParseDecimalToCents(*amount)
	if err != nil {
		return err
	}
	when, err := parseDateOrToday(*date)
	if err != nil {
		return err
	}

	id, err := a.ledger.AddTransaction(ctx, services.AddTransactionRequest{
		AccountID:          *account,
		AmountCents:        cents,
		Date:               when,
		Type:               core.TransactionType(*txType),
		Merchant:           *merchant,
		Description:        *description,
		Notes:              *notes,
		BudgetCategoryID:   *budgetCat,
		SpendingCategoryID: *spendingCat,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Recorded transaction %d\n", id)
	return nil
}

func (a *app) addTransfer(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	from := fs.Int64("from", 0, "source account id")
	to := fs.Int64("to", 0, "destination account id")
	amount := fs.String("amount", "", "amount, e.g. 100.00")
	date := fs.String("date", "", "date (YYYY-MM-DD), default today")
	notes := fs.String("notes", "", "notes")
	fs.Parse(args)

	cents, err := core.ParseDecimalToCents(*amount)
	if err != nil {
		return err
	}
	when, err := parseDateOrToday(*date)
	if err != nil {
		return err
	}

	outID, inID, err := a.transfer.AddTransfer(ctx, services.AddTransferRequest{
		FromAccountID: *from,
		ToAccountID:   *to,
		AmountCents:   cents,
		Date:          when,
		Notes:         *notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Recorded transfer: out %d, in %d\n", outID, inID)
	return nil
}

func (a *app) fundCategory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fund", flag.ExitOnError)
	category := fs.Int64("category", 0, "budget category id")
	amount := fs.String("amount", "", "amount, e.g. 300.00")
	date := fs.String("date", "", "date (YYYY-MM-DD), default today")
	notes := fs.String("notes", "", "notes")
	fs.Parse(args)

	cents, err := core.ParseDecimalToCents(*amount)
	if err != nil {
		return err
	}
	when, err := parseDateOrToday(*date)
	if err != nil {
		return err
	}

	id, err := a.budget.FundCategory(ctx, *category, core.Money{Cents: cents}, when, *notes)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded funding entry %d\n", id)
	return nil
}

func (a *app) listTransactions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	account := fs.Int64("account", 0, "limit to one account id (0 = all)")
	fs.Parse(args)

	transactions, err := a.ledger.ListTransactions(ctx, *account)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tACCOUNT\tMERCHANT\tDESCRIPTION")
	for _, t := range transactions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%d\t%s\t%s\n",
			t.ID, t.Date.Format("2006-01-02"), t.Type, t.Amount.Units(), t.AccountID, t.Merchant, t.Description)
	}
	return w.Flush()
}

func (a *app) listSummaries(ctx context.Context) error {
	summaries, err := a.budget.ListCategorySummaries(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tFUNDED\tSPENT\tREMAINING")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\n", s.Name, s.Funded.Units(), s.Spent.Units(), s.Remaining.Units())
	}
	return w.Flush()
}

func (a *app) remaining(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remaining", flag.ExitOnError)
	category := fs.Int64("category", 0, "budget category id")
	fs.Parse(args)

	cents, err := a.budget.RemainingForCategory(ctx, *category)
	if err != nil {
		return err
	}
	fmt.Printf("%.2f\n", core.Money{Cents: cents}.Units())
	return nil
}

func parseDateOrToday(value string) (core.Date, error) {
	if value == "" {
		now := time.Now().UTC()
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	return core.ParseDate(value)
}

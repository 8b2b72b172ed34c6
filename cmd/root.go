package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wsfetch/internal"
	"wsfetch/store"
	"wsfetch/webshare"
)

// options collects flag values; zero values mean "not set on the command line"
type options struct {
	configPath   string
	baseURL      string
	shareDomain  string
	proxyURL     string
	timeout      int
	concurrency  int
	storePath    string
	username     string
	debug        bool
	quiet        bool
	logLevel     string
	logFile      string
	filePassword string
	jsonOutput   bool

	config *internal.Config
}

// newRootCmd builds the command tree. Each call returns an independent tree.
func newRootCmd() *cobra.Command {
	return newRootCmdWith(&options{})
}

func newRootCmdWith(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "wsfetch",
		Short:   "Resolve webshare.cz share links into direct download links",
		Version: "v1.0.0",
		Long: `wsfetch is a command line client for the webshare.cz API.

It logs in with the salted challenge-response handshake, keeps the session
token between runs, and turns share links into direct download links or
file metadata.

Examples:
  WEBSHARE_PASSWORD=... wsfetch login --username alice
  wsfetch link https://webshare.cz/#/file/abc123/movie.mkv
  wsfetch info --file-password secret https://webshare.cz/#/file/abc123
  wsfetch logout

Environment Variables:
  WEBSHARE_USERNAME     Account used by login, logout and whoami
  WEBSHARE_PASSWORD     Account password for login (read from stdin otherwise)
  WEBSHARE_BASE_URL     API base URL
  WEBSHARE_TIMEOUT      HTTP timeout in seconds
  WEBSHARE_PROXY        Proxy URL
  WEBSHARE_STORE        Path of the session database

DISCLAIMER: Respect webshare.cz's Terms of Service and copyright laws.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.loadConfiguration(cmd); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			if err := internal.InitLogger(opts.config); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			internal.LogDebug("Configuration loaded: base_url=%s, timeout=%d, concurrency=%d, store=%s",
				opts.config.BaseURL, opts.config.DefaultTimeout, opts.config.Concurrency, opts.config.StorePath)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", internal.DefaultConfigPath(), "Path to YAML config file")
	flags.StringVar(&opts.baseURL, "base-url", "", "API base URL (env: WEBSHARE_BASE_URL)")
	flags.StringVar(&opts.shareDomain, "share-domain", "", "Domain of share links (env: WEBSHARE_SHARE_DOMAIN)")
	flags.StringVar(&opts.proxyURL, "proxy", "", "HTTP/SOCKS proxy URL (env: WEBSHARE_PROXY)")
	flags.IntVar(&opts.timeout, "timeout", 0, "Timeout of each API call in seconds (env: WEBSHARE_TIMEOUT)")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Links resolved in parallel (1-32) (env: WEBSHARE_CONCURRENCY)")
	flags.StringVar(&opts.storePath, "store", "", "Path of the session database (env: WEBSHARE_STORE)")
	flags.StringVarP(&opts.username, "username", "u", "", "Account name or email (env: WEBSHARE_USERNAME)")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging with file and line information (env: WEBSHARE_DEBUG)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print results and errors (env: WEBSHARE_QUIET)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Set log level (debug, info, warn, error) (env: WEBSHARE_LOG_LEVEL)")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to file instead of stderr (env: WEBSHARE_LOG_FILE)")

	rootCmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newLinkCmd(opts),
		newInfoCmd(opts),
	)

	return rootCmd
}

// Execute runs the CLI until completion or SIGINT/SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

// loadConfiguration layers defaults < config file < environment < flags
func (o *options) loadConfiguration(cmd *cobra.Command) error {
	config := internal.DefaultConfig()

	if err := config.LoadFromFile(o.configPath); err != nil {
		return err
	}
	config.LoadFromEnv()

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		config.BaseURL = o.baseURL
	}
	if flags.Changed("share-domain") {
		config.ShareDomain = o.shareDomain
	}
	if flags.Changed("proxy") {
		config.ProxyURL = o.proxyURL
	}
	if flags.Changed("timeout") {
		config.DefaultTimeout = o.timeout
	}
	if flags.Changed("concurrency") {
		config.Concurrency = o.concurrency
	}
	if flags.Changed("store") {
		config.StorePath = o.storePath
	}
	if o.debug {
		config.EnableDebug = true
		config.LogLevel = "debug"
	}
	if o.quiet {
		config.QuietMode = true
	}
	if o.logLevel != "" {
		config.LogLevel = o.logLevel
	}
	if o.logFile != "" {
		config.LogFile = o.logFile
	}

	if err := config.ValidateConfig(); err != nil {
		if validationErr, ok := err.(*internal.ValidationError); ok {
			internal.LogValidationError(validationErr)
		}
		return err
	}

	o.config = config
	return nil
}

func (o *options) newClient() (*webshare.Client, error) {
	return webshare.NewClient(o.config)
}

func (o *options) openStore() (*store.BboltTokenStore, error) {
	return store.NewBboltTokenStore(o.config.StorePath)
}

// account picks the account to act on: flag, then environment, then the only
// account with a stored session
func (o *options) account(tokens *store.BboltTokenStore) (string, error) {
	if o.username != "" {
		return o.username, nil
	}
	if username := internal.GetEnvWithDefault("WEBSHARE_USERNAME", ""); username != "" {
		return username, nil
	}

	accounts, err := tokens.Accounts()
	if err != nil {
		return "", err
	}
	if len(accounts) == 1 {
		return accounts[0], nil
	}

	return "", internal.NewValidationError("username", "no account selected").
		WithSuggestion("Pass --username or set WEBSHARE_USERNAME")
}

// restoreSession seeds client with the stored token of the selected account.
// It is not an error for no account or token to exist.
func (o *options) restoreSession(client *webshare.Client) error {
	tokens, err := o.openStore()
	if err != nil {
		return err
	}
	defer tokens.Close()

	account, err := o.account(tokens)
	if err != nil {
		internal.LogDebug("No account selected, continuing anonymously")
		return nil
	}

	token, ok, err := tokens.LoadToken(account)
	if err != nil {
		return err
	}
	if !ok {
		internal.LogDebug("No stored session for %s", account)
		return nil
	}

	internal.LogDebug("Restored session for %s", account)
	return client.Restore(token)
}

// filePasswordFlag returns the --file-password value, nil when the flag was not given
func (o *options) filePasswordFlag(cmd *cobra.Command) *string {
	if !cmd.Flags().Changed("file-password") {
		return nil
	}
	password := o.filePassword
	return &password
}

// reportError logs a client error with its details and returns it unchanged
func reportError(err error) error {
	if wsErr, ok := internal.AsWebshareError(err); ok {
		internal.LogWebshareError(wsErr)
	}
	return err
}

func printLine(cmd *cobra.Command, quiet bool, format string, args ...interface{}) {
	if quiet {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), fmt.Sprintf(format, args...))
}

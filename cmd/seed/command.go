package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeduel/internal/app"
	"codeduel/internal/config"
	"codeduel/internal/model"
	"codeduel/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type roomFlags struct {
	host           string
	opponent       string
	challenges     string
	challengeIndex int
	timeLimit      int
	tokenTTL       time.Duration
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Development data for the code duel server",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	root.AddCommand(newRoomCmd())
	return root
}

func newRoomCmd() *cobra.Command {
	f := &roomFlags{}

	v := viper.New()
	v.SetEnvPrefix("CODEDUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "room",
		Short: "Create a duel room and print dev tokens for both players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoom(cmd.Context(), cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&f.host, "host", "", "host username (env: CODEDUEL_HOST)")
	fs.StringVar(&f.opponent, "opponent", "", "opponent username (env: CODEDUEL_OPPONENT)")
	fs.StringVar(&f.challenges, "challenges", "", "YAML challenge catalog; default challenge if empty (env: CODEDUEL_CHALLENGES)")
	fs.IntVar(&f.challengeIndex, "challenge-index", 0, "catalog entry to use (env: CODEDUEL_CHALLENGE_INDEX)")
	fs.IntVar(&f.timeLimit, "time-limit", model.DefaultTimeLimit, "match length in minutes, 2-10 (env: CODEDUEL_TIME_LIMIT)")
	fs.DurationVar(&f.tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the printed tokens (env: CODEDUEL_TOKEN_TTL)")

	fs.VisitAll(func(fl *pflag.Flag) {
		_ = v.BindPFlag(fl.Name, fl)
		_ = v.BindEnv(fl.Name)
		if !fl.Changed && v.IsSet(fl.Name) {
			_ = fs.Set(fl.Name, fmt.Sprintf("%v", v.Get(fl.Name)))
		}
	})

	return cmd
}

func runRoom(ctx context.Context, cmd *cobra.Command, f *roomFlags) error {
	if f.host == "" || f.opponent == "" {
		return fmt.Errorf("--host and --opponent are required")
	}
	if f.host == f.opponent {
		return fmt.Errorf("host and opponent must differ")
	}

	challenge := defaultChallenge()
	if f.challenges != "" {
		catalog, err := loadChallenges(f.challenges)
		if err != nil {
			return err
		}
		if challenge, err = catalog.pick(f.challengeIndex); err != nil {
			return err
		}
	}

	cfg := config.Load()
	cfg.SetupLogging()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	hostID, opponentID := uuid.NewString(), uuid.NewString()
	timeLimit := f.timeLimit
	if challenge.TimeLimit > 0 && !cmd.Flags().Changed("time-limit") {
		timeLimit = challenge.TimeLimit
	}

	room, err := a.RoomService.CreateRoom(ctx, service.CreateRoomInput{
		Host:             hostID,
		HostUsername:     f.host,
		Opponent:         opponentID,
		OpponentUsername: f.opponent,
		Challenge:        challenge.Prompt,
		ExpectedOutput:   challenge.ExpectedOutput,
		TimeLimit:        timeLimit,
	})
	if err != nil {
		return err
	}

	hostToken, err := a.AuthService.GenerateToken(hostID, f.host, f.tokenTTL)
	if err != nil {
		return fmt.Errorf("sign host token: %w", err)
	}
	opponentToken, err := a.AuthService.GenerateToken(opponentID, f.opponent, f.tokenTTL)
	if err != nil {
		return fmt.Errorf("sign opponent token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "room:       %s\n", room.RoomID)
	fmt.Fprintf(out, "password:   %s\n", room.Password)
	fmt.Fprintf(out, "challenge:  %s (%d min)\n", room.Challenge, room.TimeLimit)
	fmt.Fprintf(out, "%-10s  %s\n", f.host+":", hostToken)
	fmt.Fprintf(out, "%-10s  %s\n", f.opponent+":", opponentToken)
	return nil
}

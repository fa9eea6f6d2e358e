package cli

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// blankSignature is a 1x1 transparent PNG used when no signature file is given
const blankSignature = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// playerSpec is one --player flag: name|email|phone|yyyy-mm-dd[|gender]
type playerSpec struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
}

func parsePlayerSpec(s string) (playerSpec, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 4 || len(parts) > 5 {
		return playerSpec{}, fmt.Errorf("player %q must be name|email|phone|yyyy-mm-dd[|gender]", s)
	}
	p := playerSpec{
		Name:        strings.TrimSpace(parts[0]),
		Email:       strings.TrimSpace(parts[1]),
		Phone:       strings.TrimSpace(parts[2]),
		DateOfBirth: strings.TrimSpace(parts[3]),
		Gender:      "prefer-not-to-say",
	}
	if len(parts) == 5 {
		p.Gender = strings.TrimSpace(parts[4])
	}
	return p, nil
}

// fileDataURI reads a file and encodes it as a base64 data URI
func fileDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	contentType := http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Registration kiosk commands",
	}

	cmd.AddCommand(newRegisterTeamCmd())
	cmd.AddCommand(newRegisterGetCmd())
	cmd.AddCommand(newRegisterRetryCmd())
	cmd.AddCommand(newRegisterResetCmd())

	return cmd
}

func newRegisterTeamCmd() *cobra.Command {
	var (
		teamName      string
		game          string
		players       []string
		signatureFile string
		nameStep      bool
		storeID       string
	)

	cmd := &cobra.Command{
		Use:   "team",
		Short: "Register a whole team in one go",
		Long: `Walk a new registration kiosk through every step: game selection,
details, confirmation and terms for each player, then the team name.

Each --player is name|email|phone|yyyy-mm-dd with an optional |gender.`,
		Example: `  xrkiosk register team --name "Night Owls" \
    --player "Ana|ana@example.com|555-0100|1992-07-30" \
    --player "Ben|ben@example.com|555-0101|1990-02-11|male"
  xrkiosk register team --store sb2 --name "Solo" \
    --player "Cat|cat@example.com|555-0102|1988-12-01"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(players) == 0 {
				return fmt.Errorf("at least one --player is required")
			}
			specs := make([]playerSpec, len(players))
			for i, p := range players {
				spec, err := parsePlayerSpec(p)
				if err != nil {
					return err
				}
				specs[i] = spec
			}

			signature := blankSignature
			if signatureFile != "" {
				uri, err := fileDataURI(signatureFile)
				if err != nil {
					return fmt.Errorf("failed to read signature: %w", err)
				}
				signature = uri
			}

			result, err := registerTeam(storeID, teamName, game, specs, signature, nameStep)
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&teamName, "name", "", "Team name (required)")
	cmd.Flags().StringVar(&game, "game", "Zombie Storm", "Game title")
	cmd.Flags().StringArrayVar(&players, "player", nil, "Player as name|email|phone|yyyy-mm-dd[|gender] (repeatable)")
	cmd.Flags().StringVar(&signatureFile, "signature-file", "", "Image used as every player's signature")
	cmd.Flags().BoolVar(&nameStep, "team-name-step", false, "Server runs the separate team name input step")
	cmd.Flags().StringVar(&storeID, "store", "", "Venue of the kiosk (default: the server's STORE_ID)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func registerTeam(storeID, teamName, game string, players []playerSpec, signature string, nameStep bool) (Registration, error) {
	var open any
	if storeID != "" {
		open = map[string]string{"store_id": storeID}
	}
	var reg Registration
	if err := client.Post("/api/v1/registrations", open, &reg); err != nil {
		return reg, err
	}
	base := "/api/v1/registrations/" + reg.ID

	post := func(action string, body any) error {
		if err := client.Post(base+action, body, &reg); err != nil {
			return fmt.Errorf("%s: %w", strings.TrimPrefix(action, "/"), err)
		}
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "%s -> %s\n", action, reg.Step)
		}
		return nil
	}

	if err := post("/start", nil); err != nil {
		return reg, err
	}
	if err := post("/game", map[string]string{"game": game}); err != nil {
		return reg, err
	}
	if err := post("/continue", nil); err != nil {
		return reg, err
	}

	consent := map[string]bool{"agree_terms": true, "agree_esign": true, "agree_email": true}
	for i, p := range players {
		if i > 0 {
			if err := post("/members", nil); err != nil {
				return reg, err
			}
		}
		if err := post("/details", p); err != nil {
			return reg, err
		}
		if err := post("/confirm", nil); err != nil {
			return reg, err
		}
		if err := post("/terms", map[string]any{"signature": signature, "consent": consent}); err != nil {
			return reg, err
		}
	}

	if nameStep {
		if err := post("/team-name", nil); err != nil {
			return reg, err
		}
	}
	if err := post("/complete", map[string]string{"team_name": teamName}); err != nil {
		return reg, err
	}
	return reg, nil
}

func newRegisterGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <kiosk-id>",
		Short: "Show a registration kiosk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Registration
			if err := client.Get("/api/v1/registrations/"+args[0], &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newRegisterRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry-save <kiosk-id>",
		Short: "Retry saving a completed team that failed to persist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Registration
			if err := client.Post("/api/v1/registrations/"+args[0]+"/retry-save", nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newRegisterResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <kiosk-id>",
		Short: "Return a registration kiosk to the welcome screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Registration
			if err := client.Post("/api/v1/registrations/"+args[0]+"/reset", nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Staff equipping station commands",
		Long: `Drive a staff equipping station. Run "xrkiosk login" first when the
server has a staff PIN configured.`,
	}

	cmd.AddCommand(newStaffNewCmd())
	cmd.AddCommand(newStaffGetCmd())
	cmd.AddCommand(newStaffLoadCmd())
	cmd.AddCommand(newStaffPhotoCmd())
	cmd.AddCommand(newStaffWeaponCmd())
	cmd.AddCommand(newStaffWeaponsCmd())
	cmd.AddCommand(newStaffActionCmd("complete", "Move to the completion screen once every player is equipped"))
	cmd.AddCommand(newStaffActionCmd("edit", "Return from completion to player selection"))
	cmd.AddCommand(newStaffActionCmd("next", "Mark the team ready for gameplay and start over"))
	cmd.AddCommand(newStaffActionCmd("reset", "Abandon the current team and start over"))

	return cmd
}

func stationPath(id string) string {
	return "/api/v1/staff/sessions/" + id
}

func newStaffNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Open a new staff station",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StaffStation
			if err := client.Post("/api/v1/staff/sessions", nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newStaffGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <station-id>",
		Short: "Show a staff station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StaffStation
			if err := client.Get(stationPath(args[0]), &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newStaffLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <station-id> <session-code>",
		Short: "Load a registered team by session code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StaffStation
			req := map[string]string{"session_code": args[1]}
			if err := client.Post(stationPath(args[0])+"/team", req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newStaffPhotoCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "photo <station-id> <player-id>",
		Short: "Upload a player's photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := fileDataURI(file)
			if err != nil {
				return fmt.Errorf("failed to read photo: %w", err)
			}

			base := stationPath(args[0])
			if err := client.Post(base+"/players/"+args[1]+"/photo", nil, nil); err != nil {
				return err
			}

			var result StaffStation
			if err := client.Put(base+"/photo", map[string]string{"image": image}, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Photo image file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newStaffWeaponCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weapon <station-id> <player-id> <weapon>",
		Short: "Assign a weapon to a player",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := stationPath(args[0])
			if err := client.Post(base+"/players/"+args[1]+"/weapon", nil, nil); err != nil {
				return err
			}

			var result StaffStation
			if err := client.Put(base+"/weapon", map[string]string{"weapon": args[2]}, &result); err != nil {
				// Leave the station on player selection rather than stuck mid-choice
				_ = client.Do(http.MethodDelete, base+"/players/"+args[1]+"/weapon", nil, nil)
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newStaffWeaponsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weapons <station-id>",
		Short: "Show weapon availability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result WeaponList
			if err := client.Get(stationPath(args[0])+"/weapons", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newStaffActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <station-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StaffStation
			if err := client.Post(stationPath(args[0])+"/"+action, nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

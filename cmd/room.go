package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hilthontt/burnchat/dependency"
	"github.com/spf13/cobra"
)

var withInvite bool

var createRoomCmd = &cobra.Command{
	Use:   "create-room",
	Short: "Create a room in the configured store and print its credentials",
	Args:  cobra.NoArgs,
	RunE:  createRoom,
}

func init() {
	createRoomCmd.Flags().BoolVar(&withInvite, "invite", true, "also issue an invite code for the second participant")
	rootCmd.AddCommand(createRoomCmd)
}

func createRoom(cmd *cobra.Command, _ []string) error {
	container, err := dependency.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("error initializing dependencies: %w", err)
	}
	defer container.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	room, err := container.RoomUC.Create(ctx)
	if err != nil {
		return err
	}

	token, err := container.RoomUC.Enter(ctx, room.ID, "")
	if err != nil {
		return fmt.Errorf("error claiming room: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "room:  %s\n", room.ID)
	fmt.Fprintf(out, "token: %s\n", token)

	if withInvite {
		invite, err := container.InviteUC.Create(ctx, room.ID, token)
		if err != nil {
			return fmt.Errorf("error creating invite: %w", err)
		}
		fmt.Fprintf(out, "invite: %s\n", invite.Code)
	}

	return nil
}

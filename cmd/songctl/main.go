// songctl manages the song queue from the command line and can follow it
// live over the backend's push channel.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/himanshub16/songdesk/client"
	"github.com/himanshub16/songdesk/songs"
)

var endpoint string

func main() {
	root := &cobra.Command{
		Use:          "songctl",
		Short:        "Manage songs in the queue",
		SilenceUsage: true,
	}

	defaultEndpoint := os.Getenv("SONGDESK_URL")
	if defaultEndpoint == "" {
		defaultEndpoint = "http://localhost:1077"
	}
	root.PersistentFlags().StringVar(&endpoint, "endpoint", defaultEndpoint,
		"Address of the songdesk backend")

	root.AddCommand(
		newListCommand(),
		newAddCommand(),
		newUpdateCommand(),
		newClearCommand(),
		newWatchCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all songs in the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api := client.NewAPIClient(endpoint)
			list, err := api.GetSongs()
			if err != nil {
				return err
			}
			fmt.Println(renderSongTable(list))
			return nil
		},
	}
}

func newAddCommand() *cobra.Command {
	var title, body string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new song to the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api := client.NewAPIClient(endpoint)
			song, err := api.SubmitSong(title, body)
			if err != nil {
				return err
			}
			fmt.Println("Song added successfully!")
			fmt.Println("Song ID:", song.SongID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Song title")
	cmd.Flags().StringVarP(&body, "body", "b", "", "Song body")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("body")
	return cmd
}

func newUpdateCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "update <song_id>",
		Short: "Update the status of a song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad song id %q", args[0])
			}
			api := client.NewAPIClient(endpoint)
			target := songs.SongStatus(strings.ToUpper(status))
			if _, err := api.UpdateSongStatus(sid, target); err != nil {
				return err
			}
			fmt.Println("Successfully updated song status to", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status for the song (DONE or SKIPPED)")
	cmd.MarkFlagRequired("status")
	return cmd
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all songs from the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api := client.NewAPIClient(endpoint)
			if err := api.ClearSongs(); err != nil {
				return err
			}
			fmt.Println("Successfully cleared all songs from the database")
			return nil
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the pending queue live",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api := client.NewAPIClient(endpoint)
			rec := client.NewReconciler(api.GetSongs)
			rec.OnChange = printSnapshot

			sock := client.NewSocket(endpoint)
			sock.OnConnect = func() {
				if err := rec.HandleReconnect(); err != nil {
					log.Println("resync failed err:", err)
				}
			}
			sock.OnDisconnect = func() {
				rec.HandleDisconnect()
				fmt.Println("-- disconnected, trying to reconnect...")
			}
			sock.OnReconnectFailed = func() {
				fmt.Println("-- reconnection attempts exhausted, giving up")
				os.Exit(1)
			}
			sock.OnEvent = rec.HandleEvent

			if err := sock.Connect(); err != nil {
				return err
			}
			defer sock.Close()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			<-interrupt
			return nil
		},
	}
}

func printSnapshot(snap client.Snapshot) {
	if snap.State != client.StateLive {
		return
	}
	if snap.UrgentMessage != "" {
		fmt.Printf("!! URGENT: %s (song #%d)\n", snap.UrgentMessage, snap.UrgentID)
	}
	fmt.Println(renderSongTable(snap.Songs))
}

func renderSongTable(list []songs.Song) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Body", "Status", "Created At"})
	for _, s := range list {
		tw.AppendRow(table.Row{
			s.SongID, s.Title, s.Body, s.Status,
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return tw.Render()
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"coursechat/backend/internal/config"
	"coursechat/backend/internal/models"
	"coursechat/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  create-channel <topic> [name]   map a room topic to a new channel
  delete-channel <topic>          remove the channel of a topic
  list-channels                   print every channel
  history <topic> [limit]         print the latest stored messages of a topic`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}
	db, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	command := os.Args[1]

	switch command {
	case "create-channel":
		if len(os.Args) < 3 || len(os.Args) > 4 {
			fmt.Println("Usage: admin create-channel <topic> [name]")
			os.Exit(1)
		}
		channel := &models.Channel{Topic: os.Args[2]}
		if len(os.Args) == 4 {
			channel.Name = os.Args[3]
		}
		if err := storageSvc.CreateChannel(ctx, channel); err != nil {
			log.Fatalf("Error creating channel: %v", err)
		}
		fmt.Printf("Channel %s created for topic %s.\n", channel.ID, channel.Topic)
	case "delete-channel":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin delete-channel <topic>")
			os.Exit(1)
		}
		if err := storageSvc.DeleteChannel(ctx, os.Args[2]); err != nil {
			log.Fatalf("Error deleting channel: %v", err)
		}
		fmt.Printf("Channel for topic %s has been deleted.\n", os.Args[2])
	case "list-channels":
		if err := listChannels(ctx, storageSvc); err != nil {
			log.Fatalf("Error listing channels: %v", err)
		}
	case "history":
		if len(os.Args) < 3 || len(os.Args) > 4 {
			fmt.Println("Usage: admin history <topic> [limit]")
			os.Exit(1)
		}
		limit := 20
		if len(os.Args) == 4 {
			limit, err = strconv.Atoi(os.Args[3])
			if err != nil || limit <= 0 {
				fmt.Println("Invalid limit. Please provide a positive integer.")
				os.Exit(1)
			}
		}
		if err := printHistory(ctx, storageSvc, os.Args[2], limit); err != nil {
			log.Fatalf("Error reading history: %v", err)
		}
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func listChannels(ctx context.Context, s storage.Storage) error {
	channels, err := s.ListChannels(ctx)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		fmt.Printf("%s\t%s\t%s\n", ch.Topic, ch.ID, ch.Name)
	}
	return nil
}

func printHistory(ctx context.Context, s storage.Storage, topic string, limit int) error {
	channel, err := s.FindChannelByTopic(ctx, topic)
	if err != nil {
		return err
	}
	history, err := s.GetChannelHistory(ctx, channel.ID, limit)
	if err != nil {
		return err
	}
	for _, msg := range history {
		text := msg.Content
		if msg.ImageURL != nil {
			text += " [image: " + *msg.ImageURL + "]"
		}
		fmt.Printf("%s %s (%s): %s\n", msg.CreatedAt.Format(time.RFC3339), msg.Sender, msg.UserID, text)
	}
	return nil
}

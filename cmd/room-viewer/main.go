package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"lobby-backend/internal/database"
	"lobby-backend/internal/env"
	"lobby-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

type viewerConfig struct {
	table    string
	roomID   string
	limit    int
	start    string
	asJSON   bool
	describe bool
	timeout  time.Duration
}

func parseFlags(args []string) (viewerConfig, error) {
	cfg := viewerConfig{}
	fs := flag.NewFlagSet("room-viewer", flag.ContinueOnError)
	fs.StringVar(&cfg.table, "table", env.GetOrDefault(env.RoomsTable, model.RoomsTable), "rooms table name")
	fs.StringVar(&cfg.roomID, "room", "", "show a single room by id")
	fs.IntVar(&cfg.limit, "limit", 0, "page size; 0 scans the whole table")
	fs.StringVar(&cfg.start, "start", "", "page token printed by a previous paged run")
	fs.BoolVar(&cfg.asJSON, "json", false, "print JSON instead of a table")
	fs.BoolVar(&cfg.describe, "describe", false, "print table metadata")
	fs.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "overall deadline")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.limit < 0 {
		return cfg, fmt.Errorf("limit must not be negative")
	}
	return cfg, nil
}

func main() {
	if err := env.Load(); err != nil {
		logrus.WithError(err).Fatal("failed to load .env")
	}
	log := logrus.NewEntry(logrus.StandardLogger()).WithField("service", "room-viewer")

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.WithError(err).Fatal("invalid flags")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	db, err := database.NewDatabase(ctx, database.ConfigFromEnv())
	if err != nil {
		log.WithError(err).Fatal("db init failed")
	}

	if err := run(ctx, db.Client.Table(cfg.table), cfg); err != nil {
		log.WithError(err).WithField("table", cfg.table).Fatal("room-viewer failed")
	}
}

func run(ctx context.Context, rooms database.Table, cfg viewerConfig) error {
	out := os.Stdout

	if cfg.describe {
		meta, err := rooms.Describe(ctx)
		if err != nil {
			return err
		}
		return writeTableMeta(out, meta, cfg.asJSON)
	}

	if cfg.roomID != "" {
		var item model.RoomItem
		if err := rooms.Get(ctx, database.StringKey(model.RoomKeyAttr, cfg.roomID), &item); err != nil {
			if errors.Is(err, database.ErrItemNotFound) {
				return fmt.Errorf("room %s is not in %s", cfg.roomID, rooms.Name())
			}
			return err
		}
		return writeRooms(out, []model.RoomItem{item}, cfg.asJSON)
	}

	var (
		raw       []map[string]types.AttributeValue
		nextToken string
	)
	if cfg.limit == 0 {
		items, err := rooms.ScanAll(ctx)
		if err != nil {
			return err
		}
		raw = items
	} else {
		startKey, err := decodeKey(cfg.start)
		if err != nil {
			return err
		}
		page, err := rooms.ScanPage(ctx, int32(cfg.limit), startKey)
		if err != nil {
			return err
		}
		raw = page.Items
		if page.Next != nil {
			if nextToken, err = encodeKey(page.Next); err != nil {
				return err
			}
		}
	}

	var found []model.RoomItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &found); err != nil {
		return fmt.Errorf("unmarshal rooms: %w", err)
	}
	sortRooms(found)
	if err := writeRooms(out, found, cfg.asJSON); err != nil {
		return err
	}
	if nextToken != "" {
		fmt.Fprintf(os.Stderr, "more rooms: -start %s\n", nextToken)
	}
	return nil
}

// Page tokens carry the room id only, which is the whole key of the table.
func encodeKey(key database.Key) (string, error) {
	id, ok := key[model.RoomKeyAttr].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("unexpected page key shape")
	}
	data, err := json.Marshal(map[string]string{model.RoomKeyAttr: id.Value})
	if err != nil {
		return "", fmt.Errorf("marshal key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeKey(token string) (database.Key, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode page token: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal page token: %w", err)
	}
	if raw[model.RoomKeyAttr] == "" {
		return nil, fmt.Errorf("page token has no room id")
	}
	return database.StringKey(model.RoomKeyAttr, raw[model.RoomKeyAttr]), nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"lobby-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type roomView struct {
	ID         string   `json:"id"`
	Creator    string   `json:"creator"`
	Status     string   `json:"status"`
	Players    []string `json:"players"`
	Spectators []string `json:"spectators"`
	Private    bool     `json:"private"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

func toView(item model.RoomItem) roomView {
	players := item.Players
	if players == nil {
		players = []string{}
	}
	spectators := item.Spectators
	if spectators == nil {
		spectators = []string{}
	}
	created := ""
	if item.CreatedAt > 0 {
		created = time.Unix(item.CreatedAt, 0).UTC().Format(time.RFC3339)
	}
	return roomView{
		ID:         item.ID,
		Creator:    item.Creator,
		Status:     item.Status,
		Players:    players,
		Spectators: spectators,
		Private:    item.PasswordHash != "",
		CreatedAt:  created,
		UpdatedAt:  item.UpdatedAt,
	}
}

func sortRooms(rooms []model.RoomItem) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt != rooms[j].CreatedAt {
			return rooms[i].CreatedAt < rooms[j].CreatedAt
		}
		return rooms[i].ID < rooms[j].ID
	})
}

func writeRooms(w io.Writer, rooms []model.RoomItem, asJSON bool) error {
	views := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, toView(r))
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATOR\tSTATUS\tPLAYERS\tSPECTATORS\tPRIVATE\tCREATED")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
			v.ID, v.Creator, v.Status, strings.Join(v.Players, ","), len(v.Spectators), v.Private, v.CreatedAt)
	}
	return tw.Flush()
}

type tableMeta struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	ItemCount int64  `json:"itemCount"`
	SizeBytes int64  `json:"sizeBytes"`
	Created   string `json:"created,omitempty"`
}

func writeTableMeta(w io.Writer, desc *types.TableDescription, asJSON bool) error {
	meta := tableMeta{
		Name:      aws.ToString(desc.TableName),
		Status:    string(desc.TableStatus),
		ItemCount: aws.ToInt64(desc.ItemCount),
		SizeBytes: aws.ToInt64(desc.TableSizeBytes),
	}
	if desc.CreationDateTime != nil {
		meta.Created = desc.CreationDateTime.UTC().Format(time.RFC3339)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}
	_, err := fmt.Fprintf(w, "table:   %s\nstatus:  %s\nitems:   %d\nbytes:   %d\ncreated: %s\n",
		meta.Name, meta.Status, meta.ItemCount, meta.SizeBytes, meta.Created)
	return err
}

// Package storage persists per-guild bot state as a JSON datastore on
// disk: recent play history and the channel where now-playing
// announcements go. Playback state itself is never persisted; a restart
// starts every guild idle.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/keshon/datastore"
)

// playHistoryLimit caps how many finished tracks a guild record keeps.
const playHistoryLimit = 12

type Storage struct {
	ds *datastore.DataStore
}

// PlayedTrack is one entry of a guild's listening history.
type PlayedTrack struct {
	TrackID     string    `json:"track_id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	RequestedBy string    `json:"requested_by"`
	PlayedAt    time.Time `json:"played_at"`
}

// Record is everything stored for one guild.
type Record struct {
	PlayHistory     []PlayedTrack `json:"play_history"`
	AnnounceChannel string        `json:"announce_channel"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateGuildRecord loads a guild record, creating an empty one on
// first sight. The datastore hands values back as generic JSON, so a
// round-trip restores the typed form.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	data, exists := s.ds.Get(guildID)
	if !exists {
		record := &Record{PlayHistory: []PlayedTrack{}}
		s.ds.Add(guildID, record)
		return record, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}

	if len(record.PlayHistory) > playHistoryLimit {
		record.PlayHistory = record.PlayHistory[len(record.PlayHistory)-playHistoryLimit:]
	}
	return &record, nil
}

// AppendPlayedTrack records a finished track, trimming to the history cap.
func (s *Storage) AppendPlayedTrack(guildID string, track PlayedTrack) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.PlayHistory = append(record.PlayHistory, track)
	if len(record.PlayHistory) > playHistoryLimit {
		record.PlayHistory = record.PlayHistory[len(record.PlayHistory)-playHistoryLimit:]
	}
	s.ds.Add(guildID, record)
	return nil
}

// PlayHistory returns a guild's history, oldest first.
func (s *Storage) PlayHistory(guildID string) ([]PlayedTrack, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.PlayHistory, nil
}

func (s *Storage) SetAnnounceChannel(guildID, channelID string) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.AnnounceChannel = channelID
	s.ds.Add(guildID, record)
	return nil
}

// AnnounceChannel returns the configured channel id, or "" when the
// guild never set one.
func (s *Storage) AnnounceChannel(guildID string) (string, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return "", err
	}
	return record.AnnounceChannel, nil
}

func (s *Storage) RemoveAnnounceChannel(guildID string) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.AnnounceChannel = ""
	s.ds.Add(guildID, record)
	return nil
}

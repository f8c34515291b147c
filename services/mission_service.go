package services

import (
	"errors"
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/google/uuid"

	"github.com/open-rover/navigator/pkg/config"
	customlog "github.com/open-rover/navigator/pkg/log"
)

// ErrNoMission is returned when mission data is requested before any mission
// has been loaded.
var ErrNoMission = errors.New("no mission loaded")

// ErrMissionStorage marks failures writing mission data to disk, as opposed
// to validation failures in the submitted mission itself.
var ErrMissionStorage = errors.New("mission storage failure")

// EventMissionUpdated is published when a replacement mission has been staged.
const EventMissionUpdated = "MISSION_UPDATED"

// MissionNotifier publishes mission lifecycle events.
// This avoids a direct dependency on the concrete ZeroMQ publisher.
type MissionNotifier interface {
	PublishMissionEvent(eventType string, data interface{}) error
}

// MissionService manages the navigation mission: the active copy the current
// run was built from, and staged replacements that apply on the next start.
// Navigation constants are fixed for the lifetime of a run, so UpdateMission
// never mutates the active mission.
type MissionService interface {
	LoadMission() error
	ActiveMission() *config.MissionConfig
	ActiveMissionYAML() ([]byte, error)
	StagedMission() *config.MissionConfig
	RunID() string
	UpdateMission(newMissionYAML []byte) error
	SetNotifier(n MissionNotifier)
}

// missionService implements the MissionService interface.
type missionService struct {
	missionPath string
	logger      customlog.Logger
	notifier    MissionNotifier
	active      *config.MissionConfig
	activeYAML  []byte
	staged      *config.MissionConfig
	runID       string
	mu          sync.RWMutex
}

// NewMissionService creates a MissionService and loads the mission from the
// given path. A navigator cannot run without a mission, so a failed initial
// load is an error rather than a deferred condition.
func NewMissionService(missionPath string, logger customlog.Logger) (MissionService, error) {
	if missionPath == "" {
		return nil, fmt.Errorf("mission path cannot be empty")
	}

	service := &missionService{
		missionPath: missionPath,
		logger:      logger,
		mu:          sync.RWMutex{},
	}

	if err := service.LoadMission(); err != nil {
		return nil, err
	}

	return service, nil
}

// LoadMission reads the mission file from disk, validates it, and assigns a
// fresh run id.
func (s *missionService) LoadMission() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("Loading mission from: %s", s.missionPath)

	data, err := ioutil.ReadFile(s.missionPath)
	if err != nil {
		s.logger.Errorf("Error reading mission file '%s': %v", s.missionPath, err)
		return fmt.Errorf("error reading mission file '%s': %w", s.missionPath, err)
	}

	mission, err := config.ParseMissionConfig(data)
	if err != nil {
		s.logger.Errorf("Error parsing mission file '%s': %v", s.missionPath, err)
		return err
	}

	s.active = mission
	s.activeYAML = data
	s.runID = uuid.New().String()

	s.logger.Infof("Mission %s loaded (run %s): %d waypoints",
		mission.MissionID, s.runID, len(mission.Waypoints))
	return nil
}

// ActiveMission returns the mission the current run was built from.
func (s *missionService) ActiveMission() *config.MissionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ActiveMissionYAML returns the raw YAML the active mission was loaded from.
// The bytes are kept in memory so a staged update on disk does not shadow
// the active run.
func (s *missionService) ActiveMissionYAML() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeYAML == nil {
		return nil, ErrNoMission
	}

	data := make([]byte, len(s.activeYAML))
	copy(data, s.activeYAML)
	return data, nil
}

// StagedMission returns the staged replacement mission, or nil when none has
// been accepted during this run.
func (s *missionService) StagedMission() *config.MissionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staged
}

// RunID returns the identifier assigned to the active mission run.
func (s *missionService) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

// UpdateMission validates the provided mission YAML and stages it: the file
// is persisted for the next start and a notification is published, but the
// active run keeps its waypoints and constants.
func (s *missionService) UpdateMission(newMissionYAML []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("Validating staged mission update (%d bytes)", len(newMissionYAML))

	staged, err := config.ParseMissionConfig(newMissionYAML)
	if err != nil {
		s.logger.Errorf("Staged mission rejected: %v", err)
		return err
	}

	if err := s.persistUnlocked(newMissionYAML); err != nil {
		return err
	}

	s.staged = staged
	s.logger.Infof("Mission %s staged with %d waypoints, applies on next start",
		staged.MissionID, len(staged.Waypoints))

	if s.notifier != nil {
		// Notify asynchronously so a slow subscriber cannot block the update
		go func(n MissionNotifier) {
			event := map[string]interface{}{
				"mission_id": staged.MissionID,
				"version":    staged.Version,
				"waypoints":  len(staged.Waypoints),
				"staged":     true,
			}
			if err := n.PublishMissionEvent(EventMissionUpdated, event); err != nil {
				s.logger.Warnf("Failed to publish mission update notification: %v", err)
			}
		}(s.notifier)
	}

	return nil
}

// persistUnlocked writes the mission YAML to the mission path. The caller
// holds the lock.
func (s *missionService) persistUnlocked(yamlData []byte) error {
	s.logger.Infof("Persisting staged mission to: %s", s.missionPath)

	if err := ioutil.WriteFile(s.missionPath, yamlData, 0644); err != nil {
		s.logger.Errorf("Error writing mission file '%s': %v", s.missionPath, err)
		return fmt.Errorf("%w: writing '%s': %v", ErrMissionStorage, s.missionPath, err)
	}

	return nil
}

// SetNotifier injects the MissionNotifier after initialization. The notifier
// depends on the ZeroMQ service, which is constructed later in startup.
func (s *missionService) SetNotifier(n MissionNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"garage-backend/internal/models"
	"garage-backend/internal/notify"
	"garage-backend/internal/repository"

	"go.uber.org/zap"
)

// StorageKey is the key the garage is persisted under.
const StorageKey = "smartGarage.vehicles.v1"

var (
	ErrInvalidVehicle    = errors.New("invalid vehicle")
	ErrDuplicateVehicle  = errors.New("a vehicle with this id already exists")
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrRecordNotFound    = errors.New("maintenance record not found")
	ErrUnsupportedAction = errors.New("action not supported by this vehicle")
)

// Action names an operation a client can trigger on a vehicle.
type Action string

const (
	ActionTurnOn         Action = "turn_on"
	ActionTurnOff        Action = "turn_off"
	ActionAccelerate     Action = "accelerate"
	ActionBrake          Action = "brake"
	ActionEngageTurbo    Action = "engage_turbo"
	ActionDisengageTurbo Action = "disengage_turbo"
	ActionLoadCargo      Action = "load_cargo"
	ActionUnloadCargo    Action = "unload_cargo"
)

// TakesAmount reports whether the action needs a numeric amount.
func (a Action) TakesAmount() bool {
	switch a {
	case ActionAccelerate, ActionBrake, ActionLoadCargo, ActionUnloadCargo:
		return true
	}
	return false
}

// SaveReport describes one write of the garage.
type SaveReport struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}

// LoadReport describes one read of the garage.
type LoadReport struct {
	Loaded           int  `json:"loaded"`
	Discarded        int  `json:"discarded"`
	Duplicates       int  `json:"duplicates"`
	RecordsDiscarded int  `json:"recordsDiscarded"`
	Corrupted        bool `json:"corrupted"`
}

// UpcomingMaintenance pairs a future maintenance record with its vehicle.
type UpcomingMaintenance struct {
	VehicleID    string                    `json:"vehicleId"`
	VehicleModel string                    `json:"vehicleModel"`
	VehicleType  models.VehicleType        `json:"vehicleType"`
	Record       *models.MaintenanceRecord `json:"record"`
}

// VehicleView is a read-only copy of a vehicle's state.
type VehicleView struct {
	models.StoredVehicle
	Description string `json:"description"`
}

// SaveObserver is told about every write the garage attempts.
type SaveObserver interface {
	ObserveSave(vehicles int, err error)
}

// Garage owns the vehicle collection and persists it after every accepted
// mutation. All methods are safe for concurrent use; writes are serialized so
// at most one save is in flight.
type Garage struct {
	mu       sync.Mutex
	vehicles []models.Vehicle
	store    repository.Store
	logger   *zap.Logger
	notifier notify.Notifier
	observer SaveObserver
	now      func() time.Time
}

type Option func(*Garage)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Garage) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(g *Garage) {
		if n != nil {
			g.notifier = n
		}
	}
}

func WithSaveObserver(o SaveObserver) Option {
	return func(g *Garage) {
		g.observer = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Garage) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGarage(store repository.Store, opts ...Option) *Garage {
	g := &Garage{
		store:    store,
		logger:   zap.NewNop(),
		notifier: notify.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("garage")
	return g
}

func (g *Garage) indexOf(id string) int {
	for i, v := range g.vehicles {
		if v.ID() == id {
			return i
		}
	}
	return -1
}

// AddVehicle inserts v and persists the garage. Invalid vehicles and duplicate
// ids are rejected without touching storage.
func (g *Garage) AddVehicle(ctx context.Context, v models.Vehicle) error {
	if !models.IsValid(v) {
		return ErrInvalidVehicle
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.indexOf(v.ID()) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateVehicle, v.ID())
	}
	g.vehicles = append(g.vehicles, v)
	g.logger.Info("vehicle added", zap.String("vehicle_id", v.ID()), zap.String("type", string(v.Type())))
	g.persist(ctx)
	return nil
}

func (g *Garage) RemoveVehicle(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(id)
	if i < 0 {
		return ErrVehicleNotFound
	}
	g.vehicles = append(g.vehicles[:i:i], g.vehicles[i+1:]...)
	g.logger.Info("vehicle removed", zap.String("vehicle_id", id))
	g.persist(ctx)
	return nil
}

// FindVehicle returns a copy of the vehicle with id. Changes to the copy do
// not reach the garage; use Perform.
func (g *Garage) FindVehicle(id string) (models.Vehicle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.indexOf(id); i >= 0 {
		return models.Clone(g.vehicles[i]), true
	}
	return nil, false
}

// ListVehicles returns copies of the vehicles in insertion order.
func (g *Garage) ListVehicles() []models.Vehicle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Vehicle, len(g.vehicles))
	for i, v := range g.vehicles {
		out[i] = models.Clone(v)
	}
	return out
}

func view(v models.Vehicle) VehicleView {
	return VehicleView{StoredVehicle: v.Serialize(), Description: v.Describe()}
}

func (g *Garage) Snapshot(id string) (VehicleView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.indexOf(id)
	if i < 0 {
		return VehicleView{}, ErrVehicleNotFound
	}
	return view(g.vehicles[i]), nil
}

func (g *Garage) Snapshots() []VehicleView {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]VehicleView, 0, len(g.vehicles))
	for _, v := range g.vehicles {
		out = append(out, view(v))
	}
	return out
}

// Perform runs action on the vehicle with id. Rejected operations come back as
// a Result, not an error; errors are reserved for unknown vehicles and actions
// the variant does not support. The garage is saved when the vehicle changed.
func (g *Garage) Perform(ctx context.Context, id string, action Action, amount float64) (models.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(id)
	if i < 0 {
		return models.Result{}, ErrVehicleNotFound
	}
	v := g.vehicles[i]

	var result models.Result
	switch action {
	case ActionTurnOn:
		result = v.TurnOn()
	case ActionTurnOff:
		result = v.TurnOff()
	case ActionAccelerate:
		result = v.Accelerate(amount)
	case ActionBrake:
		result = v.Brake(amount)
	case ActionEngageTurbo, ActionDisengageTurbo:
		car, ok := v.(*models.SportsCar)
		if !ok {
			return models.Result{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedAction, action, v.Type())
		}
		if action == ActionEngageTurbo {
			result = car.EngageTurbo()
		} else {
			result = car.DisengageTurbo()
		}
	case ActionLoadCargo, ActionUnloadCargo:
		truck, ok := v.(*models.Truck)
		if !ok {
			return models.Result{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedAction, action, v.Type())
		}
		if action == ActionLoadCargo {
			result = truck.LoadCargo(amount)
		} else {
			result = truck.UnloadCargo(amount)
		}
	default:
		return models.Result{}, fmt.Errorf("%w: %q", ErrUnsupportedAction, action)
	}

	g.logger.Debug("vehicle action",
		zap.String("vehicle_id", id),
		zap.String("action", string(action)),
		zap.String("outcome", string(result.Outcome)),
	)
	if result.Changed {
		g.persist(ctx)
	}
	return result, nil
}

func (g *Garage) AddMaintenance(ctx context.Context, vehicleID string, record *models.MaintenanceRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(vehicleID)
	if i < 0 {
		return ErrVehicleNotFound
	}
	if err := g.vehicles[i].AddMaintenanceRecord(record); err != nil {
		return err
	}
	g.persist(ctx)
	return nil
}

func (g *Garage) RemoveMaintenance(ctx context.Context, vehicleID, recordID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(vehicleID)
	if i < 0 {
		return ErrVehicleNotFound
	}
	if !g.vehicles[i].RemoveMaintenanceRecord(recordID) {
		return ErrRecordNotFound
	}
	g.persist(ctx)
	return nil
}

// MaintenanceHistory returns the vehicle's records, most recent first.
func (g *Garage) MaintenanceHistory(vehicleID string) ([]*models.MaintenanceRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.indexOf(vehicleID)
	if i < 0 {
		return nil, ErrVehicleNotFound
	}
	return g.vehicles[i].MaintenanceHistory(), nil
}

// ListUpcomingMaintenance returns every record dated at or after now, oldest
// first.
func (g *Garage) ListUpcomingMaintenance() []UpcomingMaintenance {
	g.mu.Lock()
	now := g.now()
	var out []UpcomingMaintenance
	for _, v := range g.vehicles {
		for _, r := range v.MaintenanceHistory() {
			if r.Date().IsZero() || !r.IsUpcoming(now) {
				continue
			}
			out = append(out, UpcomingMaintenance{
				VehicleID:    v.ID(),
				VehicleModel: v.Model(),
				VehicleType:  v.Type(),
				Record:       r,
			})
		}
	}
	g.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Record.Date(), out[j].Record.Date()
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})
	return out
}

// Save writes the whole garage to storage.
func (g *Garage) Save(ctx context.Context) (SaveReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.save(ctx)
}

// persist saves after a mutation. The in-memory change stands even when the
// write fails; the failure is reported through the notifier.
func (g *Garage) persist(ctx context.Context) {
	_, _ = g.save(ctx)
}

func (g *Garage) save(ctx context.Context) (SaveReport, error) {
	var report SaveReport
	entries := make([]json.RawMessage, 0, len(g.vehicles))
	for _, v := range g.vehicles {
		data, err := json.Marshal(v.Serialize())
		if err != nil {
			report.Skipped++
			g.logger.Error("failed to serialize vehicle", zap.String("vehicle_id", v.ID()), zap.Error(err))
			continue
		}
		entries = append(entries, data)
	}
	if report.Skipped > 0 {
		g.notifier.Notify(fmt.Sprintf("%d vehicle(s) could not be saved.", report.Skipped), notify.SeverityWarning, notify.Persistent)
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return report, fmt.Errorf("encode garage: %w", err)
	}
	err = g.store.Set(ctx, StorageKey, string(payload))
	if g.observer != nil {
		g.observer.ObserveSave(len(entries), err)
	}
	if err != nil {
		g.logger.Error("failed to save garage", zap.Int("bytes", len(payload)), zap.Error(err))
		if errors.Is(err, repository.ErrQuotaExceeded) {
			g.notifier.Notify("Storage is full. Your latest changes are kept in this session but were not saved.", notify.SeverityError, notify.Persistent)
		} else {
			g.notifier.Notify("Could not save the garage. Your latest changes are kept in this session only.", notify.SeverityError, notify.Persistent)
		}
		return report, fmt.Errorf("save garage: %w", err)
	}
	report.Saved = len(entries)
	g.logger.Debug("garage saved", zap.Int("vehicles", report.Saved), zap.Int("bytes", len(payload)))
	return report, nil
}

// Load replaces the collection with the stored garage. A missing key yields an
// empty garage. Unreadable data resets the garage and is reported, not
// returned; only storage read failures produce an error.
func (g *Garage) Load(ctx context.Context) (LoadReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var report LoadReport
	g.vehicles = nil

	raw, ok, err := g.store.Get(ctx, StorageKey)
	if err != nil {
		g.logger.Error("failed to read garage", zap.Error(err))
		g.notifier.Notify("Could not read the saved garage. Starting empty.", notify.SeverityError, notify.Persistent)
		return report, fmt.Errorf("load garage: %w", err)
	}
	if !ok {
		g.logger.Info("no saved garage, starting empty")
		return report, nil
	}

	var top json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		report.Corrupted = true
		g.logger.Error("saved garage is not valid JSON", zap.Error(err))
		g.notifier.Notify("The saved garage could not be read and was reset. Data may have been lost.", notify.SeverityError, notify.Persistent)
		return report, nil
	}

	var entries []json.RawMessage
	if !bytes.HasPrefix(bytes.TrimSpace(top), []byte("[")) || json.Unmarshal(top, &entries) != nil {
		report.Corrupted = true
		g.logger.Error("saved garage is not a list, clearing it")
		if err := g.store.Delete(ctx, StorageKey); err != nil {
			g.logger.Error("failed to clear corrupted garage", zap.Error(err))
		}
		g.notifier.Notify("The saved garage was corrupted and has been cleared.", notify.SeverityError, notify.Persistent)
		return report, nil
	}

	for _, entry := range entries {
		v, dropped, err := models.DeserializeVehicle(entry)
		if err != nil {
			report.Discarded++
			g.logger.Warn("discarding stored vehicle", zap.Error(err))
			continue
		}
		report.RecordsDiscarded += dropped
		if g.indexOf(v.ID()) >= 0 {
			report.Duplicates++
			g.logger.Warn("discarding duplicate stored vehicle", zap.String("vehicle_id", v.ID()))
			continue
		}
		g.vehicles = append(g.vehicles, v)
	}
	report.Loaded = len(g.vehicles)

	if lost := report.Discarded + report.Duplicates; lost > 0 {
		g.notifier.Notify(fmt.Sprintf("%d saved vehicle(s) could not be restored.", lost), notify.SeverityWarning, notify.Persistent)
	}
	if report.RecordsDiscarded > 0 {
		g.notifier.Notify(fmt.Sprintf("%d maintenance record(s) could not be restored.", report.RecordsDiscarded), notify.SeverityWarning, notify.Persistent)
	}
	g.logger.Info("garage loaded",
		zap.Int("vehicles", report.Loaded),
		zap.Int("discarded", report.Discarded),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("records_discarded", report.RecordsDiscarded),
	)
	return report, nil
}

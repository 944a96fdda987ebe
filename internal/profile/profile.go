package profile

import (
	"fmt"
	"strconv"
	"strings"

	"cardiac-assistant/internal/session"
	"cardiac-assistant/pkg"
)

// Risk levels shown on the profile card. The derivation is a display
// heuristic, deterministic for a given record; it is not a clinical
// algorithm.
const (
	RiskLow      = "Faible"
	RiskModerate = "Modéré"
	RiskHigh     = "Élevé"
)

const logoutPrompt = "Voulez-vous vraiment vous déconnecter ?"

// View is the patient record projected onto display slots, placeholders
// substituted for absent fields.
type View struct {
	Name          string
	Details       string
	BloodPressure string
	HeartRate     string
	Cholesterol   string
	Weight        string
	Risk          string
	Reminders     []pkg.Reminder
}

// Render projects the state onto display fields. Reminders keep their
// original order.
func Render(state pkg.PatientState) View {
	v := View{
		Name:          "Patient",
		BloodPressure: "--/-- mmHg",
		HeartRate:     "-- bpm",
		Cholesterol:   "-- g/L",
		Weight:        "-- kg",
		Risk:          riskLevel(state),
		Reminders:     state.Reminders,
	}
	if state.FullName != "" {
		v.Name = state.FullName
	}
	v.Details = fmt.Sprintf("Âge: %s • Sexe: %s • Groupe: %s",
		orPlaceholder(intField(state.Age)),
		orPlaceholder(state.Gender),
		orPlaceholder(state.BloodType))
	// The pressure reading is shown as stored; only the placeholder
	// carries the unit.
	if state.BloodPressure != "" {
		v.BloodPressure = state.BloodPressure
	}
	if state.HeartRate != 0 {
		v.HeartRate = fmt.Sprintf("%d bpm", state.HeartRate)
	}
	if state.Cholesterol != 0 {
		v.Cholesterol = fmt.Sprintf("%g g/L", state.Cholesterol)
	}
	if state.Weight != 0 {
		v.Weight = fmt.Sprintf("%g kg", state.Weight)
	}
	return v
}

func orPlaceholder(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

func intField(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Vitals thresholds for the risk heuristic. Absent vitals score nothing.
const (
	systolicThreshold    = 140
	heartRateThreshold   = 100
	cholesterolThreshold = 2.0
	weightThreshold      = 95
)

func riskLevel(state pkg.PatientState) string {
	flags := 0
	if s := systolic(state.BloodPressure); s > systolicThreshold {
		flags++
	}
	if state.HeartRate > heartRateThreshold {
		flags++
	}
	if state.Cholesterol > cholesterolThreshold {
		flags++
	}
	if state.Weight > weightThreshold {
		flags++
	}
	return levelFor(flags)
}

// RiskFromFeatures derives the risk level from a flat feature vector in the
// order systolic pressure, heart rate, cholesterol, weight. The /predict
// endpoint shares this heuristic with the profile card.
func RiskFromFeatures(features []float64) (string, error) {
	if len(features) != 4 {
		return "", fmt.Errorf("expected 4 features, got %d", len(features))
	}
	flags := 0
	if features[0] > systolicThreshold {
		flags++
	}
	if features[1] > heartRateThreshold {
		flags++
	}
	if features[2] > cholesterolThreshold {
		flags++
	}
	if features[3] > weightThreshold {
		flags++
	}
	return levelFor(flags), nil
}

func levelFor(flags int) string {
	switch {
	case flags >= 2:
		return RiskHigh
	case flags == 1:
		return RiskModerate
	default:
		return RiskLow
	}
}

// systolic extracts the systolic reading from a "140/90" style pressure
// string; malformed or absent values read as zero.
func systolic(pressure string) float64 {
	part, _, _ := strings.Cut(pressure, "/")
	v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
	if err != nil {
		return 0
	}
	return v
}

// Binder drives the profile page: display mode, the edit form and logout.
// The confirmer and navigator are injected so the binder stays independent
// of any page globals.
type Binder struct {
	store    *session.Store
	confirm  func(prompt string) bool
	navigate func(path string)
	editing  bool
}

// NewBinder wires a binder to its session store, confirmation dialog and
// navigation handles.
func NewBinder(store *session.Store, confirm func(string) bool, navigate func(string)) *Binder {
	return &Binder{store: store, confirm: confirm, navigate: navigate}
}

// View loads the persisted record and projects it for display.
func (b *Binder) View() View {
	return Render(b.store.LoadPatient())
}

// BeginEdit switches to the edit form and returns the current record to
// pre-populate it.
func (b *Binder) BeginEdit() pkg.PatientState {
	b.editing = true
	return b.store.LoadPatient()
}

// CancelEdit returns to display mode without touching the store.
func (b *Binder) CancelEdit() { b.editing = false }

// Editing reports whether the edit form is open.
func (b *Binder) Editing() bool { return b.editing }

// SubmitEdit replaces the entire stored record with the submitted field
// values and returns to display mode.
func (b *Binder) SubmitEdit(form pkg.PatientState) error {
	if err := b.store.SavePatient(form); err != nil {
		return fmt.Errorf("save patient record: %w", err)
	}
	b.editing = false
	return nil
}

// Logout asks for confirmation, then clears the persisted records and
// navigates to the login entry point. A declined confirmation changes
// nothing.
func (b *Binder) Logout() error {
	if !b.confirm(logoutPrompt) {
		return nil
	}
	if err := b.store.ClearPatient(); err != nil {
		return err
	}
	if err := b.store.ClearUser(); err != nil {
		return err
	}
	b.navigate("/login")
	return nil
}

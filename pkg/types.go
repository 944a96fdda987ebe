package pkg

import "time"

// Sender identifies who authored a transcript message. There are only two
// senders: the user (patient) and the bot.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single conversation turn. Messages are immutable once
// created; the transcript appends them in submission order and never edits
// or removes them.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Reminder is carried through the patient record opaquely: the profile view
// iterates reminders for display but does not interpret their fields.
type Reminder struct {
	Title string `json:"title,omitempty"`
	Time  string `json:"time,omitempty"`
	Note  string `json:"note,omitempty"`
}

// PatientState is the full patient record persisted by the session store.
// Every field is optional; absent fields render as the "--" placeholder
// family. Updates replace the whole record, there is no field-level patch.
type PatientState struct {
	FullName      string     `json:"fullName,omitempty"`
	Age           int        `json:"age,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	BloodType     string     `json:"bloodType,omitempty"`
	BloodPressure string     `json:"bloodPressure,omitempty"`
	HeartRate     int        `json:"heartRate,omitempty"`
	Cholesterol   float64    `json:"cholesterol,omitempty"`
	Weight        float64    `json:"weight,omitempty"`
	Reminders     []Reminder `json:"reminders,omitempty"`
}

// Role selects which side of the product a user logs into.
type Role string

const (
	RolePatient Role = "patient"
	RoleMedecin Role = "medecin"
)

// UserSession is the record returned by /api/login and stored verbatim by
// the client until logout or overwrite. No expiry is tracked client-side.
type UserSession struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Token string `json:"token,omitempty"`
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the assistant's reply; the client renders Response
// verbatim.
type AskResponse struct {
	Response string `json:"response"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// LoginResponse is the body returned by POST /api/login. The client reacts
// only to Success, Message, Redirect and User.
type LoginResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	Redirect string       `json:"redirect,omitempty"`
	User     *UserSession `json:"user,omitempty"`
}

// PredictRequest is the body of POST /predict: a flat feature vector in the
// order systolic pressure, heart rate, cholesterol, weight.
type PredictRequest struct {
	Features []float64 `json:"features"`
}

// PredictResponse reports the derived risk level for a feature vector.
type PredictResponse struct {
	Risk string `json:"risk"`
}

package scheduling

// Layouts of the appointment date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type AppointmentRequest struct {
	PatientID string `json:"patient_id"`
	Doctor    string `json:"doctor"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
}

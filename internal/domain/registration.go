package domain

// RegistrationRequest agrupa los campos del formulario de registro.
// BotToken es la respuesta del widget anti-bot; el resto son los seis
// campos obligatorios del dominio.
type RegistrationRequest struct {
	FirstName        string
	LastName         string
	Username         string
	Password         string
	RecoveryEmail    string
	VerificationCode string
	BotToken         string
}

// MissingFields indica si falta alguno de los seis campos obligatorios.
func (r RegistrationRequest) MissingFields() bool {
	return r.FirstName == "" ||
		r.LastName == "" ||
		r.Username == "" ||
		r.Password == "" ||
		r.RecoveryEmail == "" ||
		r.VerificationCode == ""
}

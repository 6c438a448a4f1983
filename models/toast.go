package models

// ToastLevel is the severity of a user-visible notification.
type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
)

// Toast is a transient notification shown once on the next rendered view.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}

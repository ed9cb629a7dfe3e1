package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	signupSubject   = "Welcome to FitRank!"
	passwordSubject = "Your FitRank password reset"
)

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// SignupMessage renders the welcome mail sent after registration.
func SignupMessage(email, name string) (Message, error) {
	html, err := render("signup.html", struct{ Name, Email string }{name, email})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      email,
		ToName:  name,
		Subject: signupSubject,
		HTML:    html,
		Text:    fmt.Sprintf("Welcome to FitRank, %s! Your account %s has been created.", name, email),
	}, nil
}

// PasswordResetMessage renders the mail carrying a temporary password.
func PasswordResetMessage(email, name, tempPassword string) (Message, error) {
	html, err := render("password.html", struct{ Name, TempPassword string }{name, tempPassword})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      email,
		ToName:  name,
		Subject: passwordSubject,
		HTML:    html,
		Text:    fmt.Sprintf("Hello %s, your temporary password is: %s", name, tempPassword),
	}, nil
}

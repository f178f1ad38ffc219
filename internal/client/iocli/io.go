package iocli

//go:generate moq -out io_mock.go . IO

// IO абстрагирует терминал: вывод результатов, подтверждения, скрытый ввод токена
type IO interface {
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	IsTerminal() bool
	Write(p []byte) (n int, err error)
}

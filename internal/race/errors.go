package race

import "errors"

// Motivos de rejeição. O texto é exibido diretamente ao jogador.
var (
	ErrBetWhileRacing      = errors.New("cannot bet while race in progress")
	ErrBetNotAllowed       = errors.New("bet amount not allowed")
	ErrRaceInProgress      = errors.New("race already in progress")
	ErrNoBet               = errors.New("no bet placed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoRace              = errors.New("no race in progress")
	ErrNoRaceToFinish      = errors.New("no race to finish")
	ErrRaceNotFinished     = errors.New("race not finished")
	ErrUnknownSuit         = errors.New("unknown suit")
	ErrInvalidProgress     = errors.New("invalid progress snapshot")
)

// Rejection descreve uma pré-condição violada. O estado do engine não muda.
type Rejection struct {
	Op     string // operação rejeitada, ex: "startRace"
	Err    error  // um dos Err* acima
	Detail string // contexto opcional, ex: "bet 120, balance 100"
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return r.Err.Error()
	}
	return r.Err.Error() + ": " + r.Detail
}

func (r *Rejection) Unwrap() error { return r.Err }

func reject(op string, err error, detail string) error {
	return &Rejection{Op: op, Err: err, Detail: detail}
}

// Reject cria uma rejeição para pré-condições verificadas fora do engine
// (ex: a sessão esperando a confirmação do servidor)
func Reject(op string, err error) error { return reject(op, err, "") }

// IsRejection informa se err é uma pré-condição violada (e não falha de infra)
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

package ops

import "time"

// Operation is one logistics event loaded from an uploaded spreadsheet.
// Rows are append-only: created by bulk upload, read by dashboards and
// reports, removed only by the admin bulk wipe.
type Operation struct {
	ID             int64      `json:"id"`
	Booking        string     `json:"booking"`
	Containers     string     `json:"containers"`
	Embarcador     string     `json:"embarcador"`
	TrackingCode   string     `json:"tracking_code"`
	DataProgramada time.Time  `json:"data_programada"`
	InicioReal     *time.Time `json:"inicio_real,omitempty"`
	FimReal        *time.Time `json:"fim_real,omitempty"`
	// TempoAtraso and AtrasoHHMM are the two legacy delay representations.
	// DelayMinutes reconciles them; neither is authoritative on its own.
	TempoAtraso    *int      `json:"tempo_atraso,omitempty"`
	AtrasoHHMM     string    `json:"atraso_hhmm,omitempty"`
	Justificativa  string    `json:"justificativa,omitempty"`
	Motorista      string    `json:"motorista,omitempty"`
	PlacaCavalo    string    `json:"placa_cavalo,omitempty"`
	PlacaCarreta   string    `json:"placa_carreta,omitempty"`
	NumeroPrograma string    `json:"numero_programa,omitempty"`
	Transportadora string    `json:"transportadora,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AtrasoMin returns the canonical lateness for this operation.
func (o Operation) AtrasoMin() int {
	return DelayMinutes(o.TempoAtraso, o.AtrasoHHMM)
}

// Late reports whether the operation missed its schedule.
func (o Operation) Late() bool { return o.AtrasoMin() > 0 }

// Window scopes aggregation queries. Zero Start/End mean an unbounded side;
// empty Embarcador or Booking match all rows.
type Window struct {
	Start      time.Time
	End        time.Time
	Embarcador string
	Booking    string
}

// KPISummary is the dashboard headline block.
type KPISummary struct {
	Total   int     `json:"total"`
	OnTime  int     `json:"onTime"`
	Late    int     `json:"late"`
	LatePct float64 `json:"latePct"`
}

// ReasonCount ranks delay justifications.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// ClientCount ranks shippers by late operations.
type ClientCount struct {
	Client string `json:"client"`
	Count  int    `json:"count"`
}

// ListFilter drives the paginated operations listing. Filters are
// conjunctive; Booking is a case-insensitive substring match and Date an
// exact scheduled-date match.
type ListFilter struct {
	Page    int
	Limit   int
	Booking string
	Date    string // YYYY-MM-DD

	// Embarcador is forced by the auth layer for non-admin users.
	Embarcador string
}

// Pagination describes one page of a listing.
type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// Alias maps a raw shipper name variant to its canonical form.
// Keyed by alias text, last write wins.
type Alias struct {
	Alias     string    `json:"alias"`
	Master    string    `json:"master"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User roles and statuses.
const (
	RoleAdmin      = "admin"
	RoleEmbarcador = "embarcador"

	StatusPendente = "pendente"
	StatusAtivo    = "ativo"
)

// User is the application-side identity linked 1:1 to an external
// identity-provider subject. Role and shipper linkage are immutable after
// creation; only status transitions (pendente -> ativo).
type User struct {
	ID           string    `json:"id"`
	Subject      string    `json:"subject"`
	Email        string    `json:"email"`
	Nome         string    `json:"nome"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	EmbarcadorID *int      `json:"embarcador_id,omitempty"`
	Embarcador   string    `json:"embarcador,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DelaySource is one row of the versioned schema mapping that translates
// legacy spreadsheet columns into the two canonical delay fields.
type DelaySource struct {
	Column string // header as it appears in uploaded files
	Kind   string // "minutes" or "hhmm"
	Active bool
}

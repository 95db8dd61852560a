package domain

import "context"

// AccountRepository stores accounts and their 1:1 profiles.
type AccountRepository interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	PhoneNumberRegistered(ctx context.Context, phoneNumber string) (bool, error)
	// CreateAccount inserts the account and its profile atomically and fills
	// in the generated IDs. Unique violations map to ErrDuplicateUsername or
	// ErrDuplicatePhoneNumber.
	CreateAccount(ctx context.Context, account *Account, profile *Profile) error
	GetAccountByID(ctx context.Context, id int64) (*Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
	// GetProfileByAccountID returns nil, nil when the account has no profile.
	GetProfileByAccountID(ctx context.Context, accountID int64) (*Profile, error)
	DeleteAccountByUsername(ctx context.Context, username string) error
}

// ContactRepository is scoped to a single owner on every call.
type ContactRepository interface {
	ListContacts(ctx context.Context, ownerID int64) ([]Contact, error)
	GetContact(ctx context.Context, ownerID, id int64) (*Contact, error)
	ContactExists(ctx context.Context, ownerID int64, phoneNumber string, excludeID int64) (bool, error)
	CreateContact(ctx context.Context, contact *Contact) error
	UpdateContact(ctx context.Context, contact *Contact) error
	DeleteContact(ctx context.Context, ownerID, id int64) error
}

// SpamReportRepository owns the spam report write path.
type SpamReportRepository interface {
	ReportExists(ctx context.Context, reporterID int64, phoneNumber string) (bool, error)
	// RecordReport inserts the report, flags every contact with the number and
	// bumps the matching profile's counter in one transaction.
	RecordReport(ctx context.Context, reporterID int64, phoneNumber string) (*SpamReport, error)
	ListReportsByReporter(ctx context.Context, reporterID int64) ([]SpamReport, error)
	CountReports(ctx context.Context, phoneNumber string) (int, error)
}

// DirectoryRepository serves the read side of search.
type DirectoryRepository interface {
	// FindProfilesByName and FindContactsByName match case-insensitive
	// substrings and return rows in insertion order.
	FindProfilesByName(ctx context.Context, query string) ([]NameMatch, error)
	FindContactsByName(ctx context.Context, query string) ([]NameMatch, error)
	// GetProfileByPhone returns nil, nil when the number is not registered.
	GetProfileByPhone(ctx context.Context, phoneNumber string) (*RegisteredProfile, error)
	GroupContactsByPhone(ctx context.Context, phoneNumber string) ([]ContactGroup, error)
	HasContact(ctx context.Context, ownerID int64, phoneNumber string) (bool, error)
}

// ReportPublisher announces committed spam reports to other systems.
type ReportPublisher interface {
	PublishSpamReported(ctx context.Context, report *SpamReport) error
}

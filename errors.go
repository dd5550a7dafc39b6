package folio

import "errors"

var (
	ErrSchemaLoad           = errors.New("folio: failed to load schema catalog")
	ErrRedisConnect         = errors.New("folio: failed to connect to redis")
	ErrStoreOpen            = errors.New("folio: failed to open record store")
	ErrSessionOpen          = errors.New("folio: failed to open session store")
	ErrCredentials          = errors.New("folio: failed to open credential store")
	ErrBlobOpen             = errors.New("folio: failed to open blob store")
	ErrNotifierOpen         = errors.New("folio: failed to open notifier")
	ErrNotificationsPending = errors.New("folio: notifications still pending at shutdown")
)

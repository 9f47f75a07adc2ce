package apperr

var (
	// store
	ErrNotFound = NotFound("not found")

	// auth
	ErrNoToken            = Unauthorized("no token provided")
	ErrInvalidToken       = Forbidden("invalid or expired token")
	ErrNotAuthenticated   = Unauthorized("not authenticated")
	ErrAdminRequired      = Forbidden("admin privileges required")
	ErrSuperAdminRequired = Forbidden("super admin privileges required")
	ErrInvalidCredentials = Unauthorized("invalid username or password")
	ErrWrongPassword      = Unauthorized("current password is incorrect")
	ErrAccountDisabled    = Forbidden("account disabled")
	ErrRateLimited        = New(CodeTooManyRequests, "too many requests, try again later")

	// users
	ErrUserNotFound     = NotFound("user not found")
	ErrUsernameTaken    = AlreadyExists("username is already taken")
	ErrInvalidRole      = InvalidArg("invalid role")
	ErrSelfFollow       = InvalidArg("cannot follow yourself")
	ErrAlreadyFollowing = InvalidArg("already following this user")
	ErrProtectedAccount = Forbidden("cannot modify a super admin account")
	ErrNotFollowing     = InvalidArg("not following this user")
	ErrBlockedByUser    = Forbidden("this user has blocked you")
	ErrSelfDemote       = InvalidArg("cannot demote yourself")
	ErrNotAdmin         = InvalidArg("user is not an admin")

	// blacklist
	ErrSelfBlock      = InvalidArg("cannot block yourself")
	ErrAlreadyBlocked = InvalidArg("user is already blocked")
	ErrNotBlocked     = NotFound("user is not blocked")

	// messaging
	ErrBlocked              = Forbidden("recipient has blocked you")
	ErrSelfMessage          = InvalidArg("cannot send a message to yourself")
	ErrEmptyMessage         = InvalidArg("receiverId and content are required")
	ErrConversationNotFound = NotFound("conversation not found")
	ErrNotParticipant       = Forbidden("not a participant of this conversation")

	// upload
	ErrNoFile       = InvalidArg("no file provided")
	ErrFileTooLarge = InvalidArg("file is too large")
)

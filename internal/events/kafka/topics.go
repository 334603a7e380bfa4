package kafka

// Topics carrying the bot's domain events.
const (
	TopicUserEvents    = "licensebot.user.events"
	TopicLicenseEvents = "licensebot.license.events"
	TopicTicketEvents  = "licensebot.ticket.events"
)

// Event types, CloudEvents style.
const (
	EventUserBanned       = "bot.user.banned"
	EventUserUnbanned     = "bot.user.unbanned"
	EventUserLocked       = "bot.user.locked"
	EventUserUnlocked     = "bot.user.unlocked"
	EventUserPurged       = "bot.user.purged"
	EventLicenseActivated = "bot.license.activated"
	EventLicenseReset     = "bot.license.reset"
	EventLicenseExtended  = "bot.license.extended"
	EventLicenseCreated   = "bot.license.created"
	EventTicketOpened     = "bot.ticket.opened"
	EventTicketClosed     = "bot.ticket.closed"
	EventScriptExecuted   = "bot.script.executed"
)

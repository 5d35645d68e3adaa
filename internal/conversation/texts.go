package conversation

// Messages sent by the engine.
const (
	textStart           = "Choose an action:"
	textCancelled       = "Cancelled."
	textChooseCategory  = "Choose a category:"
	textNewCategory     = "Enter the name of the new category:"
	textChooseCurrency  = "Choose a currency:"
	textNewCurrency     = "Enter the three-letter code of the new currency:"
	textCurrencyExists  = "This currency already exists."
	textEnterAmount     = "Enter the amount:"
	textConfirm         = "Save this entry?"
	textRecorded        = "Recorded!"
	textChooseReport    = "Choose a report:"
	textAskGrouping     = "Group expenses by category?"
	textAskDate         = "Press Today or enter a date as YYYY-MM-DD or DD.MM.YYYY:"
	textBadDate         = "Cannot read this date."
	textNoData          = "No data for the period."
	textNoAccess        = "You have no access. Send /reg to request it."
	textAlreadyUser     = "You are already registered."
	textRequestPending  = "Your request is waiting for the administrator."
	textRequestSent     = "Your request has been sent to the administrator."
	textRegistryClosed  = "Registration is not available right now."
	textAccessRequest   = "%s (id %d) asks for access."
	textAccessGranted   = "Access granted. Send /start to begin."
	textAccessDenied    = "Access denied."
	textRequestResolved = "%s: %s."
	textNoSuchRequest   = "There is no such request."
)

package marketdata

import "time"

// Session state of the exchange. NSE hours: pre-open 09:00, trading
// 09:15-15:30 IST, Monday through Friday.
const (
    StatusOpen      = "OPEN"
    StatusClosed    = "CLOSED"
    StatusPreMarket = "PRE_MARKET"
)

type MarketStatus struct {
    Status  string `json:"status"`
    Message string `json:"message"`
}

// StatusAt classifies t, which must already be in the exchange timezone.
// Pure computation: no clock, no network, recomputed fresh per call.
func StatusAt(t time.Time) MarketStatus {
    switch t.Weekday() {
    case time.Saturday, time.Sunday:
        return MarketStatus{Status: StatusClosed, Message: "Market closed for the weekend"}
    }
    mins := t.Hour()*60 + t.Minute()
    const (
        preOpen   = 9 * 60        // 09:00
        sessOpen  = 9*60 + 15     // 09:15
        sessClose = 15*60 + 30    // 15:30
    )
    switch {
    case mins >= preOpen && mins < sessOpen:
        return MarketStatus{Status: StatusPreMarket, Message: "Pre-market session, trading opens at 09:15"}
    case mins >= sessOpen && mins < sessClose:
        return MarketStatus{Status: StatusOpen, Message: "Market is open"}
    default:
        return MarketStatus{Status: StatusClosed, Message: "Market is closed, trading hours are 09:15-15:30"}
    }
}

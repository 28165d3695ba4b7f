package emails

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PremiumFeatures are listed in the waitlist confirmation.
var PremiumFeatures = []string{
	"Advanced Analytics: predict trends with AI-powered tools.",
	"Priority Alerts: instant notifications on market moves.",
	"Exclusive Resources: premium trading guides and tutorials.",
	"VIP Support: 24/7 priority customer support.",
	"Customizable Dashboards: tailor your trading interface.",
	"Real-Time Market Scanner: spot opportunities with live scans.",
	"Automated Trading Bots: execute trades based on your strategies.",
	"Extended Historical Data: up to 10 years of market history.",
	"Portfolio Optimization Tools: optimize investments with advanced algorithms.",
	"Exclusive Webinars: live sessions with top trading experts.",
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func welcomeContent(username string, bonus decimal.Decimal) (string, string) {
	text := fmt.Sprintf(`Hello %s,

Welcome to TradeRiser!

You're now part of our trading family. We've added a %s bonus to your paper-trading account to get you started.

Happy Trading!
The TradeRiser Team
`, username, money(bonus))
	html := fmt.Sprintf(`
    <h1>Welcome to TradeRiser, %s!</h1>
    <p>You're now part of our trading family. We've added a <strong>%s</strong> bonus to your paper-trading account to get you started.</p>
    <p>Build a watchlist, set price alerts and practice your strategy without risking real money.</p>
    <p>Happy Trading!<br>The TradeRiser Team</p>
`, EscapeHTML(username), money(bonus))
	return text, html
}

func priceAlertContent(username, ticker string, price, target decimal.Decimal) (string, string) {
	text := fmt.Sprintf(`Dear %s,

Your price alert for %s has been triggered.

%s has reached %s (Target: %s).

Keep an eye on the market and make your next move.

Happy Trading!
The TradeRiser Team
`, username, ticker, ticker, money(price), money(target))
	html := fmt.Sprintf(`
    <h1>Price alert: %s</h1>
    <p>Dear %s,</p>
    <p><strong>%s</strong> has reached <strong>%s</strong> (target %s). This alert has now been removed.</p>
    <p>Keep an eye on the market and make your next move.</p>
    <p>Happy Trading!<br>The TradeRiser Team</p>
`, EscapeHTML(ticker), EscapeHTML(username), EscapeHTML(ticker), money(price), money(target))
	return text, html
}

func waitlistContent(username string) (string, string) {
	var tb, hb strings.Builder
	for i, f := range PremiumFeatures {
		fmt.Fprintf(&tb, "%d. %s\n", i+1, f)
		fmt.Fprintf(&hb, "      <li>%s</li>\n", EscapeHTML(f))
	}
	text := fmt.Sprintf(`Hello %s,

Thank you for joining the TradeRiser Premium waitlist!

Here's what you'll get with TradeRiser Premium:

%s
We'll notify you as soon as TradeRiser Premium is available for you.

Happy Trading!
The TradeRiser Team
`, username, tb.String())
	html := fmt.Sprintf(`
    <h1>You're on the list, %s!</h1>
    <p>Thank you for joining the <strong>TradeRiser Premium</strong> waitlist. Here's what you'll get:</p>
    <ol>
%s    </ol>
    <p>We'll notify you as soon as TradeRiser Premium is available for you.</p>
    <p>Happy Trading!<br>The TradeRiser Team</p>
`, EscapeHTML(username), hb.String())
	return text, html
}

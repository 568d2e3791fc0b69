package mailer

import (
	"fmt"
	"time"
)

const baseStyle = `<style>
.container{font-family:'Inter','Segoe UI',Arial,sans-serif;max-width:600px;margin:auto;padding:20px;background:linear-gradient(135deg,#f3e8ff,#e0e7ff);}
.content{background:#ffffff;padding:32px;border-radius:14px;box-shadow:0 4px 18px rgba(0,0,0,0.08);}
.logo{font-weight:700;font-size:32px;color:#5b21b6;text-align:center;margin-bottom:12px;}
.button{display:inline-block;background:#5b21b6;padding:14px 30px;margin:24px 0;border-radius:30px;color:#fff !important;font-weight:600;text-decoration:none;}
.footer{margin-top:32px;font-size:13px;text-align:center;color:#777;}
.token-box{background:#faf5ff;padding:12px;border-radius:8px;border:1px solid #e9d5ff;font-size:18px;font-weight:bold;text-align:center;letter-spacing:2px;color:#6d28d9;}
</style>`

func wrap(inner string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head>%s</head><body><div class="container"><div class="content"><div class="logo">Aura</div>%s<div class="footer">© %d Aura — calm daily growth.</div></div></div></body></html>`,
		baseStyle, inner, time.Now().Year())
}

func verificationBody(name, verifyLink, token string) (html, text string) {
	inner := fmt.Sprintf(`<h2>Verify Your Email</h2>
<p>Welcome to Aura, %s — where daily growth meets calm focus.</p>
<a href="%s" class="button">Verify Email</a>
<p>Or use this token:</p><div class="token-box">%s</div>
<p style="font-size:14px;color:#555;word-break:break-all;">%s</p>`,
		name, verifyLink, token, verifyLink)
	text = fmt.Sprintf("Welcome to Aura, %s! Verify your email: %s", name, verifyLink)
	return wrap(inner), text
}

func passwordResetBody(email, resetLink string) (html, text string) {
	inner := fmt.Sprintf(`<h2>Password Reset Request</h2>
<p>Hello %s, click the button below to reset your password.</p>
<a href="%s" class="button">Reset Password</a>
<p style="font-size:14px;color:#555;word-break:break-all;">%s</p>
<p>If you didn't make this request, ignore this email.</p>`,
		email, resetLink, resetLink)
	text = fmt.Sprintf("Reset your Aura password: %s", resetLink)
	return wrap(inner), text
}

func passwordResetSuccessBody(loginLink string) (html, text string) {
	inner := fmt.Sprintf(`<h2>Password Reset Successful</h2>
<p>Your password has been reset successfully.</p>
<a href="%s" class="button">Login Now</a>
<p>If you didn't perform this reset, contact support immediately.</p>`,
		loginLink)
	text = fmt.Sprintf("Your Aura password was reset. Login: %s", loginLink)
	return wrap(inner), text
}

func waitlistConfirmationBody(name, refCode, dashboardLink, referralLink string) (html, text string) {
	inner := fmt.Sprintf(`<h2>You're on the waitlist</h2>
<p>Hi %s, welcome aboard. Share your referral code to move up the list.</p>
<div class="token-box">%s</div>
<a href="%s" class="button">Open Dashboard</a>
<p style="font-size:14px;color:#555;word-break:break-all;">Your referral link: %s</p>`,
		name, refCode, dashboardLink, referralLink)
	text = fmt.Sprintf("Hi %s, you're on the Aura waitlist. Referral code: %s. Share this link: %s", name, refCode, referralLink)
	return wrap(inner), text
}

func waitlistFollowUpBody(name, refCode, referralLink string) (html, text string) {
	inner := fmt.Sprintf(`<h2>Still holding your spot</h2>
<p>Hi %s, your place on the Aura waitlist is safe. Every friend who joins with your code moves you up.</p>
<div class="token-box">%s</div>
<p style="font-size:14px;color:#555;word-break:break-all;">Share your link: %s</p>`,
		name, refCode, referralLink)
	text = fmt.Sprintf("Hi %s, you're still on the Aura waitlist. Referral code: %s. Share: %s", name, refCode, referralLink)
	return wrap(inner), text
}

package utils

import (
	"fmt"
	"lms/config"
	"net/smtp"
	"strings"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := config.AppConfig.SMTPHost
	smtpPort := config.AppConfig.SMTPPort

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// Email subject must not contain newlines
	subject = strings.Join(strings.Fields(subject), " ")

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Courses <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1B3A4B; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B3A4B; line-height: 1.6; }
			.content h2 { color: #1B3A4B; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #d7b56d; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>COURSES</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 Courses. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// 1. Welcome / Signup
func SendWelcomeEmail(email, name string) {
	subject := "Welcome to Courses"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your account has been successfully created. You can now browse the open courses and subscribe to a run.</p>
	`, name)

	go SendEmail([]string{email}, subject, getEmailTemplate("Welcome!", body))
}

// 2. Subscription Confirmation
func SendSubscriptionEmail(email, name, runTitle, subjectPrefix string) {
	subject := subjectPrefix + "Subscription Confirmed: " + runTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have been subscribed to <strong>%s</strong>.</p>
		<div class="info-box">
			<strong>Next Steps:</strong> Check the course page for the chapters that are already open.
		</div>
	`, name, runTitle)

	go SendEmail([]string{email}, subject, getEmailTemplate("Subscription Successful", body))
}

// 3. Unsubscribe Confirmation
func SendUnsubscribedEmail(email, name, runTitle, subjectPrefix string) {
	subject := subjectPrefix + "Unsubscribed: " + runTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have been unsubscribed from <strong>%s</strong>.</p>
	`, name, runTitle)

	go SendEmail([]string{email}, subject, getEmailTemplate("Unsubscribed", body))
}

// 4. Run Started
func SendRunStartedEmail(email, name, runTitle, subjectPrefix string) {
	subject := subjectPrefix + "Course Started: " + runTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p><strong>%s</strong> has started today. The first chapter is now open.</p>
	`, name, runTitle)

	go SendEmail([]string{email}, subject, getEmailTemplate("Course Started", body))
}

// 5. Chapter Open
func SendChapterOpenEmail(email, name, runTitle, chapterTitle, subjectPrefix string) {
	subject := subjectPrefix + "New Chapter Open: " + chapterTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Chapter <strong>%s</strong> of <strong>%s</strong> is open from today.</p>
	`, name, chapterTitle, runTitle)

	go SendEmail([]string{email}, subject, getEmailTemplate("New Chapter Open", body))
}

// 6. Meeting Starts Soon
func SendMeetingEmail(email, name, runTitle, link string, subjectPrefix string) {
	subject := subjectPrefix + "Upcoming Live Lesson: " + runTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>A live lesson of <strong>%s</strong> starts soon.</p>
		<p>Join here: <a href="%s">%s</a></p>
	`, name, runTitle, link, link)

	go SendEmail([]string{email}, subject, getEmailTemplate("Upcoming Live Lesson", body))
}

// 7. Certificate Generated
func SendCertificateEmail(email, name, runTitle, certificateUUID, subjectPrefix string) {
	subject := subjectPrefix + "Certificate Issued: " + runTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations! You have finished <strong>%s</strong>.</p>
		<p>Your certificate number is <strong>%s</strong>.</p>
	`, name, runTitle, certificateUUID)

	go SendEmail([]string{email}, subject, getEmailTemplate("Certificate Issued", body))
}

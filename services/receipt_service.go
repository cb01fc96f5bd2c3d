package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/courtsidehq/padel_community/configs"
	"github.com/courtsidehq/padel_community/database"
	"github.com/courtsidehq/padel_community/models"
	"github.com/google/uuid"
)

// GenerateBookingReceipt renders a PDF receipt for a paid booking and stores
// it. Called in the background after payment confirmation; failures are
// logged and never block the booking flow.
func GenerateBookingReceipt(booking models.Booking) {
	var existing models.Receipt
	if err := database.DB.Where("booking_id = ?", booking.ID).First(&existing).Error; err == nil {
		return
	}

	receiptNumber := fmt.Sprintf("PC-%s", booking.ID.String()[:8])

	htmlData, err := generateReceiptHTML(booking, receiptNumber)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt PDF: %v", err)
		return
	}

	uploadURL, err := uploadToCloudinary(pdfBytes, booking.UserID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload receipt to Cloudinary: %v", err)
		return
	}

	receipt := models.Receipt{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		ReceiptNumber: receiptNumber,
		Amount:        booking.Session.Price,
		Currency:      "AED",
		ReceiptURL:    uploadURL,
		IssuedAt:      time.Now(),
	}

	if err := database.DB.Create(&receipt).Error; err != nil {
		log.Printf("🔥 Failed to create receipt record for booking %s: %v", booking.ID, err)
	} else {
		log.Printf("✅ Generated receipt %s for booking %s.", receiptNumber, booking.ID)
	}
}

func generateReceiptHTML(booking models.Booking, receiptNumber string) (string, error) {
	tmpl, err := template.ParseFiles("templates/receipt.html")
	if err != nil {
		return "", err
	}

	data := struct {
		ReceiptNumber string
		MemberName    string
		SessionTitle  string
		SessionDate   string
		Amount        string
		IssuedDate    string
	}{
		ReceiptNumber: receiptNumber,
		MemberName:    booking.User.FullName,
		SessionTitle:  booking.Session.Title,
		SessionDate:   booking.Session.Datetime.Format("January 2, 2006 at 3:04 PM"),
		Amount:        fmt.Sprintf("AED %.2f", booking.Session.Price),
		IssuedDate:    time.Now().Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadToCloudinary(fileBytes []byte, userID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s_%s", userID, uuid.New().String()),
		Folder:       "padel_community_receipts",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}

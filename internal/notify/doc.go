// Package notify sends the two emails the issuance pipeline needs: the
// ticket delivery (with the QR code attached) and the payment reminder.
//
// Messages are plain text and single-recipient. Transport and auth failures
// are returned as *DeliveryError so the caller can leave the row unmarked.
package notify

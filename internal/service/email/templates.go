package email

// Email templates using HTML

const welcomeTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #15803d; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; }
        .footer { background: #f9fafb; padding: 20px; text-align: center; font-size: 12px; color: #6b7280; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px; }
    </style>
</head>
<body>
    <div class="header"><h1>Welcome to uPark</h1></div>
    <div class="content">
        <p>Hi {{.UserName}},</p>
        <p>Your account is ready. You can now reserve a slot before you arrive and pay from the app.</p>
    </div>
    <div class="footer">uPark &middot; Smart parking for everyone</div>
</body>
</html>
`

const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #15803d; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; }
        .row { display: flex; justify-content: space-between; padding: 8px 0; border-bottom: 1px solid #f3f4f6; }
        .total { font-size: 20px; font-weight: bold; padding-top: 16px; }
        .footer { background: #f9fafb; padding: 20px; text-align: center; font-size: 12px; color: #6b7280; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px; }
    </style>
</head>
<body>
    <div class="header"><h1>Payment receipt</h1></div>
    <div class="content">
        <p>Hi {{.UserName}}, thanks for parking with us.</p>
        <div class="row"><span>Slot</span><span>#{{.SlotNumber}}</span></div>
        <div class="row"><span>Vehicle</span><span>{{.VehiclePlate}}</span></div>
        <div class="row"><span>From</span><span>{{.BookingStart}}</span></div>
        <div class="row"><span>Until</span><span>{{.BookingEnd}}</span></div>
        <div class="row"><span>Payment reference</span><span>{{.PaymentID}}</span></div>
        <div class="total">Total paid: {{.Amount}}</div>
    </div>
    <div class="footer">uPark &middot; Keep this receipt for your records</div>
</body>
</html>
`

// Copyright 2026 The Timebridge Authors
// SPDX-License-Identifier: Apache-2.0

package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// Namespace is the QBWC service namespace every call and response
// element lives in.
const Namespace = "http://developer.intuit.com/"

// envelopeNS is the SOAP 1.1 envelope namespace.
const envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

// Request is the tagged decode of one inbound envelope. Exactly one
// field is non-nil.
type Request struct {
	ServerVersion      *ServerVersionCall
	ClientVersion      *ClientVersionCall
	Authenticate       *AuthenticateCall
	SendRequestXML     *SendRequestXMLCall
	ReceiveResponseXML *ReceiveResponseXMLCall
	ConnectionError    *ConnectionErrorCall
	GetLastError       *GetLastErrorCall
	CloseConnection    *CloseConnectionCall
}

// Procedure returns the decoded procedure name, for logging.
func (r *Request) Procedure() string {
	switch {
	case r.ServerVersion != nil:
		return "serverVersion"
	case r.ClientVersion != nil:
		return "clientVersion"
	case r.Authenticate != nil:
		return "authenticate"
	case r.SendRequestXML != nil:
		return "sendRequestXML"
	case r.ReceiveResponseXML != nil:
		return "receiveResponseXML"
	case r.ConnectionError != nil:
		return "connectionError"
	case r.GetLastError != nil:
		return "getLastError"
	case r.CloseConnection != nil:
		return "closeConnection"
	}
	return "unknown"
}

// ServerVersionCall has no parameters.
type ServerVersionCall struct{}

// ClientVersionCall carries the Web Connector's own version string.
type ClientVersionCall struct {
	Version string `xml:"strVersion"`
}

// AuthenticateCall carries the credential pair.
type AuthenticateCall struct {
	Username string `xml:"strUserName"`
	Password string `xml:"strPassword"`
}

// SendRequestXMLCall asks for the next unit of work. The company-file
// and qbXML version fields describe the client's QuickBooks instance;
// the bridge does not currently gate on them.
type SendRequestXMLCall struct {
	Ticket          string `xml:"ticket"`
	HCPResponse     string `xml:"strHCPResponse"`
	CompanyFileName string `xml:"strCompanyFileName"`
	Country         string `xml:"qbXMLCountry"`
	MajorVersion    string `xml:"qbXMLMajorVers"`
	MinorVersion    string `xml:"qbXMLMinorVers"`
}

// ReceiveResponseXMLCall reports the outcome of the last document.
// Response is empty and HResult/Message are set when the failure
// happened on the client side before QuickBooks produced a response.
type ReceiveResponseXMLCall struct {
	Ticket   string `xml:"ticket"`
	Response string `xml:"response"`
	HResult  string `xml:"hresult"`
	Message  string `xml:"message"`
}

// ConnectionErrorCall reports a QuickBooks connection failure.
type ConnectionErrorCall struct {
	Ticket  string `xml:"ticket"`
	HResult string `xml:"hresult"`
	Message string `xml:"message"`
}

// GetLastErrorCall asks for the session's last error text.
type GetLastErrorCall struct {
	Ticket string `xml:"ticket"`
}

// CloseConnectionCall ends the session.
type CloseConnectionCall struct {
	Ticket string `xml:"ticket"`
}

// UnknownProcedureError is returned by DecodeRequest when the body
// element names a procedure outside the QBWC contract.
type UnknownProcedureError struct {
	Name string
}

func (e *UnknownProcedureError) Error() string {
	return fmt.Sprintf("soap: unknown procedure %q", e.Name)
}

// DecodeRequest parses one SOAP envelope and returns the tagged call.
// The body must contain exactly one element naming a QBWC procedure.
func DecodeRequest(r io.Reader) (*Request, error) {
	decoder := xml.NewDecoder(r)

	if err := seekBody(decoder); err != nil {
		return nil, err
	}

	procedure, err := nextStartElement(decoder)
	if err != nil {
		return nil, fmt.Errorf("soap: empty envelope body: %w", err)
	}

	request := &Request{}
	var target any
	switch procedure.Name.Local {
	case "serverVersion":
		request.ServerVersion = &ServerVersionCall{}
		target = request.ServerVersion
	case "clientVersion":
		request.ClientVersion = &ClientVersionCall{}
		target = request.ClientVersion
	case "authenticate":
		request.Authenticate = &AuthenticateCall{}
		target = request.Authenticate
	case "sendRequestXML":
		request.SendRequestXML = &SendRequestXMLCall{}
		target = request.SendRequestXML
	case "receiveResponseXML":
		request.ReceiveResponseXML = &ReceiveResponseXMLCall{}
		target = request.ReceiveResponseXML
	case "connectionError":
		request.ConnectionError = &ConnectionErrorCall{}
		target = request.ConnectionError
	case "getLastError":
		request.GetLastError = &GetLastErrorCall{}
		target = request.GetLastError
	case "closeConnection":
		request.CloseConnection = &CloseConnectionCall{}
		target = request.CloseConnection
	default:
		return nil, &UnknownProcedureError{Name: procedure.Name.Local}
	}

	if err := decoder.DecodeElement(target, &procedure); err != nil {
		return nil, fmt.Errorf("soap: decoding %s parameters: %w", procedure.Name.Local, err)
	}
	return request, nil
}

// seekBody advances the decoder past the envelope to the Body start
// element.
func seekBody(decoder *xml.Decoder) error {
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return fmt.Errorf("soap: no Body element in envelope")
		}
		if err != nil {
			return fmt.Errorf("soap: parsing envelope: %w", err)
		}
		if start, ok := token.(xml.StartElement); ok && start.Name.Local == "Body" {
			return nil
		}
	}
}

// nextStartElement returns the next start element, skipping character
// data and comments.
func nextStartElement(decoder *xml.Decoder) (xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := token.(xml.StartElement); ok {
			return start, nil
		}
		if _, ok := token.(xml.EndElement); ok {
			return xml.StartElement{}, io.EOF
		}
	}
}

// EncodeStringResult wraps a single string result in a response
// envelope for the named procedure.
func EncodeStringResult(procedure, value string) []byte {
	var body bytes.Buffer
	body.WriteString("<" + procedure + "Result>")
	writeEscaped(&body, value)
	body.WriteString("</" + procedure + "Result>")
	return envelope(procedure, body.Bytes())
}

// EncodeIntResult wraps a single integer result in a response envelope
// for the named procedure.
func EncodeIntResult(procedure string, value int) []byte {
	body := []byte("<" + procedure + "Result>" + strconv.Itoa(value) + "</" + procedure + "Result>")
	return envelope(procedure, body)
}

// EncodeAuthenticateResult wraps the authenticate string pair: the
// ticket and the status field ("" for work available, "nvu" for bad
// credentials, "none" for no work).
func EncodeAuthenticateResult(ticket, status string) []byte {
	var body bytes.Buffer
	body.WriteString("<authenticateResult><string>")
	writeEscaped(&body, ticket)
	body.WriteString("</string><string>")
	writeEscaped(&body, status)
	body.WriteString("</string></authenticateResult>")
	return envelope("authenticate", body.Bytes())
}

// EncodeFault produces a SOAP 1.1 fault envelope. Used for malformed
// envelopes and unknown procedures — never for protocol-level errors,
// which travel through each procedure's sentinel return values.
func EncodeFault(faultCode, faultString string) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<soap:Envelope xmlns:soap="` + envelopeNS + `">`)
	b.WriteString("<soap:Body><soap:Fault>")
	b.WriteString("<faultcode>soap:" + faultCode + "</faultcode>")
	b.WriteString("<faultstring>")
	writeEscaped(&b, faultString)
	b.WriteString("</faultstring>")
	b.WriteString("</soap:Fault></soap:Body></soap:Envelope>")
	return b.Bytes()
}

// envelope wraps an already-encoded result body in the response
// element and SOAP envelope.
func envelope(procedure string, resultBody []byte) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<soap:Envelope xmlns:soap="` + envelopeNS + `">`)
	b.WriteString("<soap:Body>")
	b.WriteString(`<` + procedure + `Response xmlns="` + Namespace + `">`)
	b.Write(resultBody)
	b.WriteString("</" + procedure + "Response>")
	b.WriteString("</soap:Body></soap:Envelope>")
	return b.Bytes()
}

// writeEscaped writes s with XML metacharacters escaped.
func writeEscaped(b *bytes.Buffer, s string) {
	// xml.EscapeText only fails on writer errors; bytes.Buffer never
	// errors.
	_ = xml.EscapeText(b, []byte(s))
}

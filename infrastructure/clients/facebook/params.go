package facebook

type tokenParam struct {
	AccessToken string `url:"access_token"`
}

type feedParams struct {
	Message     string `url:"message,omitempty"`
	Published   *bool  `url:"published,omitempty"`
	AccessToken string `url:"access_token"`
}

type photoParams struct {
	URL         string `url:"url"`
	Caption     string `url:"caption,omitempty"`
	Published   *bool  `url:"published,omitempty"`
	AccessToken string `url:"access_token"`
}

type videoParams struct {
	FileURL     string `url:"file_url"`
	Description string `url:"description,omitempty"`
	Title       string `url:"title,omitempty"`
	Thumb       string `url:"thumb,omitempty"`
	AccessToken string `url:"access_token"`
}

type fieldsParams struct {
	Fields      string `url:"fields,omitempty"`
	Metric      string `url:"metric,omitempty"`
	UserID      string `url:"user_id,omitempty"`
	Platform    string `url:"platform,omitempty"`
	AccessToken string `url:"access_token"`
}

type exchangeParams struct {
	GrantType       string `url:"grant_type,omitempty"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	RedirectURI     string `url:"redirect_uri,omitempty"`
	Code            string `url:"code,omitempty"`
	FbExchangeToken string `url:"fb_exchange_token,omitempty"`
}

type idResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type pagesResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

type countSummary struct {
	Summary struct {
		TotalCount int64 `json:"total_count"`
	} `json:"summary"`
}

type engagementResponse struct {
	Shares struct {
		Count int64 `json:"count"`
	} `json:"shares"`
	Likes    countSummary `json:"likes"`
	Comments countSummary `json:"comments"`
}

type insightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

type sendRecipient struct {
	ID string `json:"id"`
}

type sendPayload struct {
	URL        string `json:"url"`
	IsReusable bool   `json:"is_reusable"`
}

type sendAttachment struct {
	Type    string      `json:"type"`
	Payload sendPayload `json:"payload"`
}

type sendMessage struct {
	Text       string          `json:"text,omitempty"`
	Attachment *sendAttachment `json:"attachment,omitempty"`
}

type sendRequest struct {
	Recipient     sendRecipient `json:"recipient"`
	MessagingType string        `json:"messaging_type,omitempty"`
	Message       *sendMessage  `json:"message,omitempty"`
	SenderAction  string        `json:"sender_action,omitempty"`
}

type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

type conversationsResponse struct {
	Data []struct {
		Messages struct {
			Data []struct {
				ID          string `json:"id"`
				Message     string `json:"message"`
				CreatedTime string `json:"created_time"`
				From        struct {
					ID string `json:"id"`
				} `json:"from"`
			} `json:"data"`
		} `json:"messages"`
	} `json:"data"`
}
